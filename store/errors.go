package store

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrStoreUnavailable wraps transport failures reaching the object store.
// The execution engine may retry at partition granularity; this package does
// not retry.
var ErrStoreUnavailable = errors.New("object store unavailable")

// ActorResolutionError indicates a named ownership target that did not
// resolve to a live actor.
type ActorResolutionError struct {
	Name string
}

func (e *ActorResolutionError) Error() string {
	return fmt.Sprintf("actor %q is not registered or not alive", e.Name)
}
