package store

import (
	"context"
	"encoding/hex"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// Publisher pushes encoded buffers into the object store. It is stateless
// and never retains the returned handle: the reference registry is the single
// source of truth for liveness.
type Publisher struct {
	store  ObjectStore
	logger log.Logger
}

func NewPublisher(logger log.Logger, store ObjectStore) *Publisher {
	return &Publisher{
		store:  store,
		logger: logger,
	}
}

// Publish stores one buffer under default ownership (empty ownerName) or
// under a named actor resolved at call time. The returned handle must be
// retained by the caller for as long as the object should stay alive.
func (p *Publisher) Publish(ctx context.Context, data []byte, numRecords int64, ownerName string) (RecordBatch, Handle, error) {
	var (
		handle Handle
		err    error
	)
	if ownerName == "" {
		handle, err = p.store.Put(ctx, data)
	} else {
		owner, ok := p.store.ResolveActor(ownerName)
		if !ok {
			return RecordBatch{}, nil, &ActorResolutionError{Name: ownerName}
		}
		handle, err = p.store.PutOwned(ctx, data, owner)
	}
	if err != nil {
		return RecordBatch{}, nil, err
	}

	ownerAddress, err := p.store.OwnershipInfo(ctx, handle.ObjectID())
	if err != nil {
		handle.Release()
		return RecordBatch{}, nil, err
	}

	level.Debug(p.logger).Log(
		"msg", "published batch",
		"object_id", hex.EncodeToString(handle.ObjectID()),
		"num_records", numRecords,
		"owner", ownerName,
	)
	return RecordBatch{
		OwnerAddress: ownerAddress,
		ObjectID:     handle.ObjectID(),
		NumRecords:   numRecords,
	}, handle, nil
}
