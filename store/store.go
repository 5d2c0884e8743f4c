package store

import "context"

// Handle pins one stored object in this process. The object stays alive in
// the store for as long as at least one unreleased handle exists; Release is
// the explicit unpin. Handles are not serializable.
type Handle interface {
	ObjectID() []byte
	Release()
}

// ActorHandle identifies a live actor that can take ownership of published
// objects.
type ActorHandle interface {
	Name() string
	Address() []byte
}

// ObjectStore is the boundary to the distributed object store. Put semantics,
// actor addressing and the store's own reference-counting GC live behind it.
type ObjectStore interface {
	// Put publishes data under default ownership.
	Put(ctx context.Context, data []byte) (Handle, error)
	// PutOwned publishes data with the given actor as owner.
	PutOwned(ctx context.Context, data []byte, owner ActorHandle) (Handle, error)
	// ResolveActor looks up a named actor at call time.
	ResolveActor(name string) (ActorHandle, bool)
	// OwnershipInfo returns the serialized owner address the store assigned
	// to an object.
	OwnershipInfo(ctx context.Context, objectID []byte) ([]byte, error)
	// Get fetches an object's bytes. Diagnostics only.
	Get(ctx context.Context, h Handle) ([]byte, error)
}
