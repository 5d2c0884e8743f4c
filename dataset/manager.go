package dataset

import (
	"context"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"raybridge/dataset-exchange/encoding"
	"raybridge/dataset-exchange/registry"
	"raybridge/dataset-exchange/schema"
	"raybridge/dataset-exchange/store"
)

type ManagerOption func(*Manager)

// WithRegistry replaces the shared process-wide registry, mainly for tests.
func WithRegistry(r *registry.Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithMetricsRegisterer registers the manager's metrics with reg.
func WithMetricsRegisterer(reg prometheus.Registerer) ManagerOption {
	return func(m *Manager) {
		m.metrics = newManagerMetrics(reg)
	}
}

// Manager drives the save pipeline for whole datasets: per partition it
// creates the registry entry, runs the encoder, publishes each buffer and
// pins the resulting handle, then aggregates the reference descriptors.
type Manager struct {
	logger    log.Logger
	store     store.ObjectStore
	publisher *store.Publisher
	registry  *registry.Registry
	config    SessionConfig
	metrics   *managerMetrics
}

func NewManager(logger log.Logger, objects store.ObjectStore, config SessionConfig, options ...ManagerOption) *Manager {
	m := &Manager{
		logger:    logger,
		store:     objects,
		publisher: store.NewPublisher(logger, objects),
		registry:  registry.Default(),
		config:    config,
		metrics:   newManagerMetrics(nil),
	}
	for _, option := range options {
		option(m)
	}
	return m
}

// Save publishes every partition of src into the object store and returns
// one descriptor per published buffer, ordered by partition and emission
// order within each partition. That ordering is not meaningful across
// partitions; callers needing row order must carry an ordering key in the
// schema. When batched is false each partition yields a single buffer.
//
// A failed partition fails the save without rolling back handles already
// pinned by any partition; the caller must Cleanup the dataset to release
// them.
func (m *Manager) Save(ctx context.Context, src *Source, batched bool, ownerName string) ([]store.RecordBatch, error) {
	var maxRows int64
	if batched {
		maxRows = m.config.MaxRowsPerBatch
	}
	sch := src.Schema()
	if sch.TimezoneID == "" {
		sch.TimezoneID = m.config.TimezoneID
	}

	results := make([][]store.RecordBatch, src.NumPartitions())
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < src.NumPartitions(); i++ {
		i := i
		partition := src.Partition(i)
		g.Go(func() error {
			descriptors, err := m.savePartition(ctx, src.ID(), sch, partition, maxRows, ownerName)
			if err != nil {
				return errors.Wrapf(err, "partition %d", i)
			}
			results[i] = descriptors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		level.Warn(m.logger).Log("msg", "dataset save failed", "dataset", src.ID(), "err", err)
		return nil, err
	}

	descriptors := make([]store.RecordBatch, 0, src.NumPartitions())
	for _, partitionDescriptors := range results {
		descriptors = append(descriptors, partitionDescriptors...)
	}
	level.Info(m.logger).Log(
		"msg", "dataset saved",
		"dataset", src.ID(),
		"partitions", src.NumPartitions(),
		"batches", len(descriptors),
	)
	return descriptors, nil
}

func (m *Manager) savePartition(
	ctx context.Context,
	id registry.DatasetID,
	sch schema.Schema,
	partition Partition,
	maxRows int64,
	ownerName string,
) ([]store.RecordBatch, error) {
	m.registry.GetOrCreate(id)

	encoder := encoding.NewEncoder(partition.Rows(), sch, maxRows)
	defer encoder.Close()

	var descriptors []store.RecordBatch
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buffer, err := encoder.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		descriptor, handle, err := m.publisher.Publish(ctx, buffer.Data, buffer.NumRows, ownerName)
		if err != nil {
			m.metrics.publishFailures.Inc()
			return nil, err
		}
		if err := m.registry.Append(id, handle); err != nil {
			handle.Release()
			return nil, err
		}
		m.metrics.publishedBatches.Inc()
		m.metrics.publishedRows.Add(float64(buffer.NumRows))
		m.metrics.pinnedHandles.Inc()
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// Cleanup releases the process's hold on every object published for the
// dataset. Idempotent: a second call is a no-op, since duplicate teardown is
// normal during error recovery.
func (m *Manager) Cleanup(id registry.DatasetID) {
	released := m.registry.NumHandles(id)
	m.registry.Remove(id)
	if released > 0 {
		m.metrics.pinnedHandles.Sub(float64(released))
	}
	level.Info(m.logger).Log("msg", "dataset cleaned up", "dataset", id, "released", released)
}

// RandomRef fetches the bytes of an arbitrary pinned buffer. Diagnostics and
// tests only.
func (m *Manager) RandomRef(ctx context.Context, id registry.DatasetID) ([]byte, error) {
	handle, err := m.registry.PeekAny(id)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, handle)
}
