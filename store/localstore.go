package store

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/google/uuid"
	"github.com/thanos-io/objstore"
)

// LocalStore is a reference-counted object store backed by an objstore
// Bucket, with a process-local actor table. Objects are reclaimed from the
// bucket as soon as their last handle is released, mirroring the distributed
// store's refcounting GC.
type LocalStore struct {
	logger  log.Logger
	bucket  objstore.Bucket
	address []byte

	mu      sync.Mutex
	objects map[string]*objectState
	actors  map[string]ActorHandle
}

type objectState struct {
	refs  int
	owner []byte
}

func NewLocalStore(logger log.Logger, bucket objstore.Bucket) *LocalStore {
	return &LocalStore{
		logger:  logger,
		bucket:  bucket,
		address: []byte("local://" + bucket.Name()),
		objects: make(map[string]*objectState),
		actors:  make(map[string]ActorHandle),
	}
}

// RegisterActor makes a named actor resolvable as an ownership target.
func (s *LocalStore) RegisterActor(name string, address []byte) ActorHandle {
	a := &actor{name: name, address: address}
	s.mu.Lock()
	s.actors[name] = a
	s.mu.Unlock()
	return a
}

func (s *LocalStore) ResolveActor(name string) (ActorHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors[name]
	return a, ok
}

func (s *LocalStore) Put(ctx context.Context, data []byte) (Handle, error) {
	return s.put(ctx, data, s.address)
}

func (s *LocalStore) PutOwned(ctx context.Context, data []byte, owner ActorHandle) (Handle, error) {
	return s.put(ctx, data, owner.Address())
}

func (s *LocalStore) put(ctx context.Context, data []byte, ownerAddress []byte) (Handle, error) {
	id := uuid.New()
	objectID := id[:]
	if err := s.bucket.Upload(ctx, objectKey(objectID), bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: uploading object: %s", ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	s.objects[string(objectID)] = &objectState{refs: 1, owner: ownerAddress}
	s.mu.Unlock()

	return &localHandle{store: s, objectID: objectID}, nil
}

func (s *LocalStore) OwnershipInfo(ctx context.Context, objectID []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.objects[string(objectID)]
	if !ok {
		return nil, fmt.Errorf("unknown object %s", hex.EncodeToString(objectID))
	}
	return state.owner, nil
}

func (s *LocalStore) Get(ctx context.Context, h Handle) ([]byte, error) {
	reader, err := s.bucket.Get(ctx, objectKey(h.ObjectID()))
	if err != nil {
		return nil, fmt.Errorf("%w: fetching object: %s", ErrStoreUnavailable, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// NumObjects reports how many objects are still live.
func (s *LocalStore) NumObjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *LocalStore) release(objectID []byte) {
	s.mu.Lock()
	state, ok := s.objects[string(objectID)]
	if !ok {
		s.mu.Unlock()
		return
	}
	state.refs--
	if state.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.objects, string(objectID))
	s.mu.Unlock()

	if err := s.bucket.Delete(context.Background(), objectKey(objectID)); err != nil {
		level.Warn(s.logger).Log("msg", "failed deleting reclaimed object", "object_id", hex.EncodeToString(objectID), "err", err)
		return
	}
	level.Debug(s.logger).Log("msg", "object reclaimed", "object_id", hex.EncodeToString(objectID))
}

func objectKey(objectID []byte) string {
	return hex.EncodeToString(objectID)
}

type localHandle struct {
	store    *LocalStore
	objectID []byte
	released sync.Once
}

func (h *localHandle) ObjectID() []byte {
	return h.objectID
}

func (h *localHandle) Release() {
	h.released.Do(func() {
		h.store.release(h.objectID)
	})
}

type actor struct {
	name    string
	address []byte
}

func (a *actor) Name() string    { return a.name }
func (a *actor) Address() []byte { return a.address }
