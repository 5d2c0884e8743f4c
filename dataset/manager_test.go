package dataset_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/require"
	"github.com/thanos-io/objstore"
	"go.uber.org/goleak"

	"raybridge/dataset-exchange/dataset"
	"raybridge/dataset-exchange/encoding"
	"raybridge/dataset-exchange/registry"
	"raybridge/dataset-exchange/schema"
	"raybridge/dataset-exchange/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSaveBatched(t *testing.T) {
	objects, manager, reg := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	src := dataset.NewSource(testSchema(), makePartition(0, 10), makePartition(1, 7))

	descriptors, err := manager.Save(context.Background(), src, true, "")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 5, 5, 2}, numRecords(descriptors))

	require.Equal(t, 4, reg.NumHandles(src.ID()))
	require.Equal(t, 4, objects.NumObjects())
	for _, descriptor := range descriptors {
		require.Equal(t, []byte("local://inmem"), descriptor.OwnerAddress)
		require.NotEmpty(t, descriptor.ObjectID)
	}

	data, err := manager.RandomRef(context.Background(), src.ID())
	require.NoError(t, err)
	rows, err := encoding.DecodeBuffer(data)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	manager.Cleanup(src.ID())
	_, err = manager.RandomRef(context.Background(), src.ID())
	var unknown *registry.UnknownDatasetError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, 0, objects.NumObjects())

	// Duplicate teardown is a normal occurrence during error recovery.
	manager.Cleanup(src.ID())
}

func TestSaveUnbatched(t *testing.T) {
	_, manager, reg := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	src := dataset.NewSource(testSchema(), makePartition(0, 10), makePartition(1, 7))

	descriptors, err := manager.Save(context.Background(), src, false, "")
	require.NoError(t, err)
	require.Equal(t, []int64{10, 7}, numRecords(descriptors))
	require.Equal(t, 2, reg.NumHandles(src.ID()))

	manager.Cleanup(src.ID())
}

func TestSaveEmptyPartition(t *testing.T) {
	_, manager, reg := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	src := dataset.NewSource(testSchema(), makePartition(0, 6), dataset.SlicePartition(nil))

	descriptors, err := manager.Save(context.Background(), src, true, "")
	require.NoError(t, err)
	require.Equal(t, []int64{5, 1}, numRecords(descriptors))
	require.Equal(t, 2, reg.NumHandles(src.ID()))

	manager.Cleanup(src.ID())
}

func TestSaveNamedOwner(t *testing.T) {
	objects, manager, _ := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	objects.RegisterActor("writer", []byte("actor://writer"))
	src := dataset.NewSource(testSchema(), makePartition(0, 3))

	descriptors, err := manager.Save(context.Background(), src, true, "writer")
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	require.Equal(t, []byte("actor://writer"), descriptors[0].OwnerAddress)

	manager.Cleanup(src.ID())
}

func TestSaveUnknownActor(t *testing.T) {
	objects, manager, reg := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	src := dataset.NewSource(testSchema(), makePartition(0, 10), makePartition(1, 7))

	_, err := manager.Save(context.Background(), src, true, "missing")
	var resolutionErr *store.ActorResolutionError
	require.ErrorAs(t, err, &resolutionErr)

	// Actor resolution fails before any batch is published, so nothing was
	// pinned beyond successfully published batches (here: none).
	require.Equal(t, 0, reg.NumHandles(src.ID()))
	require.Equal(t, 0, objects.NumObjects())

	manager.Cleanup(src.ID())
}

func TestRepeatedSaveReusesDataset(t *testing.T) {
	_, manager, reg := newTestManager(t, dataset.SessionConfig{TimezoneID: "UTC", MaxRowsPerBatch: 5})
	src := dataset.NewSource(testSchema(), makePartition(0, 5))

	_, err := manager.Save(context.Background(), src, true, "")
	require.NoError(t, err)
	_, err = manager.Save(context.Background(), src, true, "")
	require.NoError(t, err)

	// Both saves pin under the same stable id.
	require.Equal(t, []registry.DatasetID{src.ID()}, reg.Datasets())
	require.Equal(t, 2, reg.NumHandles(src.ID()))

	manager.Cleanup(src.ID())
	require.Empty(t, reg.Datasets())
}

func TestDistinctSourcesGetDistinctIDs(t *testing.T) {
	srcA := dataset.NewSource(testSchema(), makePartition(0, 1))
	srcB := dataset.NewSource(testSchema(), makePartition(0, 1))
	require.NotEqual(t, srcA.ID(), srcB.ID())
}

func newTestManager(t *testing.T, config dataset.SessionConfig) (*store.LocalStore, *dataset.Manager, *registry.Registry) {
	t.Helper()
	objects := store.NewLocalStore(log.NewNopLogger(), objstore.NewInMemBucket())
	reg := registry.New()
	manager := dataset.NewManager(log.NewNopLogger(), objects, config, dataset.WithRegistry(reg))
	return objects, manager, reg
}

func testSchema() schema.Schema {
	return schema.New(
		schema.Field{Name: "id", Type: schema.Int64},
		schema.Field{Name: "payload", Type: schema.String},
	)
}

func makePartition(partition, numRows int) dataset.Partition {
	rows := make([]schema.Row, 0, numRows)
	for i := 0; i < numRows; i++ {
		rows = append(rows, schema.Row{int64(partition*1000 + i), fmt.Sprintf("row-%d-%d", partition, i)})
	}
	return dataset.SlicePartition(rows)
}

func numRecords(descriptors []store.RecordBatch) []int64 {
	counts := make([]int64, 0, len(descriptors))
	for _, descriptor := range descriptors {
		counts = append(counts, descriptor.NumRecords)
	}
	return counts
}
