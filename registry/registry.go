package registry

import (
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"raybridge/dataset-exchange/store"
)

// DatasetID identifies one logical dataset instance. Two datasets with
// identical content created separately get different ids.
type DatasetID string

// UnknownDatasetError indicates registry use before GetOrCreate or after
// Remove. It is a lifecycle bug in the caller, never retried.
type UnknownDatasetError struct {
	ID DatasetID
}

func (e *UnknownDatasetError) Error() string {
	return fmt.Sprintf("unknown dataset %q", string(e.ID))
}

// ReferenceSet pins every object published for one dataset. It is
// append-only: handles are only released when the whole set is dropped.
type ReferenceSet struct {
	mu      sync.Mutex
	handles []store.Handle
}

func (s *ReferenceSet) append(h store.Handle) {
	s.mu.Lock()
	s.handles = append(s.handles, h)
	s.mu.Unlock()
}

func (s *ReferenceSet) peek() (store.Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil, false
	}
	return s.handles[len(s.handles)-1], true
}

// Len reports how many handles the set pins.
func (s *ReferenceSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *ReferenceSet) drop() {
	s.mu.Lock()
	handles := s.handles
	s.handles = nil
	s.mu.Unlock()
	for _, h := range handles {
		h.Release()
	}
}

// Registry is the process-wide map from dataset ids to their pinned
// reference sets. It exists so the store's reference-counting GC cannot
// reclaim published objects once the publishing task's locals go out of
// scope. There is no sweeping: eviction is always caller-driven via Remove.
type Registry struct {
	mu   sync.Mutex
	sets map[DatasetID]*ReferenceSet
}

func New() *Registry {
	return &Registry{
		sets: make(map[DatasetID]*ReferenceSet),
	}
}

var global = New()

// Default returns the shared process-wide registry.
func Default() *Registry {
	return global
}

// GetOrCreate returns the dataset's reference set, creating an empty one on
// first use. Concurrent calls for the same id converge on a single set.
func (r *Registry) GetOrCreate(id DatasetID) *ReferenceSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.sets[id]; ok {
		return set
	}
	set := &ReferenceSet{}
	r.sets[id] = set
	return set
}

// Append pins a handle under the dataset. The set must have been created
// first; appending to an unknown dataset is a lifecycle bug.
func (r *Registry) Append(id DatasetID, h store.Handle) error {
	r.mu.Lock()
	set, ok := r.sets[id]
	r.mu.Unlock()
	if !ok {
		return &UnknownDatasetError{ID: id}
	}
	set.append(h)
	return nil
}

// PeekAny returns an arbitrary live handle for diagnostics. An absent id and
// an empty set both fail.
func (r *Registry) PeekAny(id DatasetID) (store.Handle, error) {
	r.mu.Lock()
	set, ok := r.sets[id]
	r.mu.Unlock()
	if !ok {
		return nil, &UnknownDatasetError{ID: id}
	}
	h, ok := set.peek()
	if !ok {
		return nil, &UnknownDatasetError{ID: id}
	}
	return h, nil
}

// NumHandles reports how many handles are pinned for the dataset, 0 when the
// id is absent.
func (r *Registry) NumHandles(id DatasetID) int {
	r.mu.Lock()
	set, ok := r.sets[id]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return set.Len()
}

// Remove drops the dataset's mapping and releases every pinned handle. This
// is the only path that makes the published objects eligible for the store's
// own GC. Removing an absent id is a no-op.
func (r *Registry) Remove(id DatasetID) {
	r.mu.Lock()
	set, ok := r.sets[id]
	delete(r.sets, id)
	r.mu.Unlock()
	if ok {
		set.drop()
	}
}

// Clear drops every mapping. Full process teardown and tests only.
func (r *Registry) Clear() {
	r.mu.Lock()
	sets := r.sets
	r.sets = make(map[DatasetID]*ReferenceSet)
	r.mu.Unlock()
	for _, set := range sets {
		set.drop()
	}
}

// Datasets lists the tracked dataset ids in stable order.
func (r *Registry) Datasets() []DatasetID {
	r.mu.Lock()
	ids := maps.Keys(r.sets)
	r.mu.Unlock()
	slices.Sort(ids)
	return ids
}
