package store

// RecordBatch is the serializable reference descriptor for one published
// buffer. It carries no liveness: keeping the object alive is the job of the
// Handle held by the reference registry.
type RecordBatch struct {
	OwnerAddress []byte
	ObjectID     []byte
	NumRecords   int64
}
