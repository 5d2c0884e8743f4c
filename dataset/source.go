package dataset

import (
	"github.com/google/uuid"

	"raybridge/dataset-exchange/encoding"
	"raybridge/dataset-exchange/registry"
	"raybridge/dataset-exchange/schema"
)

// Partition is one independently executable slice of a dataset, as handed
// over by the execution engine.
type Partition interface {
	Rows() encoding.RowReader
}

// Source is the explicit handle to one logical dataset. It carries the
// stable DatasetID assigned at creation, so repeated saves of the same
// source reuse one registry entry instead of deriving identity from ambient
// state.
type Source struct {
	id         registry.DatasetID
	schema     schema.Schema
	partitions []Partition
}

func NewSource(s schema.Schema, partitions ...Partition) *Source {
	return &Source{
		id:         registry.DatasetID(uuid.NewString()),
		schema:     s,
		partitions: partitions,
	}
}

func (s *Source) ID() registry.DatasetID {
	return s.id
}

func (s *Source) Schema() schema.Schema {
	return s.schema
}

func (s *Source) NumPartitions() int {
	return len(s.partitions)
}

func (s *Source) Partition(i int) Partition {
	return s.partitions[i]
}

// SlicePartition adapts in-memory rows to the Partition boundary.
type SlicePartition []schema.Row

func (p SlicePartition) Rows() encoding.RowReader {
	return encoding.NewSliceReader(p)
}
