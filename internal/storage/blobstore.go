package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/oranjParker/Paperbase/internal/core"
)

// objectStores is the slice of nats.JetStreamContext the blob store needs.
type objectStores interface {
	ObjectStore(bucket string) (nats.ObjectStore, error)
	CreateObjectStore(cfg *nats.ObjectStoreConfig) (nats.ObjectStore, error)
}

// BlobStore wraps JetStream object-store buckets. Operations are atomic at
// single-object granularity; a missing object surfaces as core.ErrNotFound,
// everything else as transient.
type BlobStore struct {
	js objectStores
}

func NewBlobStore(js nats.JetStreamContext) *BlobStore {
	return &BlobStore{js: js}
}

func newBlobStore(js objectStores) *BlobStore {
	return &BlobStore{js: js}
}

func (s *BlobStore) Read(ctx context.Context, bucket, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store, err := s.js.ObjectStore(bucket)
	if err != nil {
		if errors.Is(err, nats.ErrStreamNotFound) || errors.Is(err, nats.ErrBucketNotFound) {
			return nil, fmt.Errorf("%w: bucket %s", core.ErrNotFound, bucket)
		}
		return nil, core.Transient(fmt.Errorf("open bucket %s: %w", bucket, err))
	}

	data, err := store.GetBytes(name)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", core.ErrNotFound, bucket, name)
		}
		return nil, core.Transient(fmt.Errorf("read %s/%s: %w", bucket, name, err))
	}
	return data, nil
}

// Write overwrites any existing object of the same name, creating the bucket
// on first use.
func (s *BlobStore) Write(ctx context.Context, bucket, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store, err := s.js.ObjectStore(bucket)
	if errors.Is(err, nats.ErrStreamNotFound) || errors.Is(err, nats.ErrBucketNotFound) {
		store, err = s.js.CreateObjectStore(&nats.ObjectStoreConfig{Bucket: bucket})
	}
	if err != nil {
		return core.Transient(fmt.Errorf("open bucket %s: %w", bucket, err))
	}

	if _, err := store.PutBytes(name, data); err != nil {
		return core.Transient(fmt.Errorf("write %s/%s: %w", bucket, name, err))
	}
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, bucket, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	store, err := s.js.ObjectStore(bucket)
	if err != nil {
		if errors.Is(err, nats.ErrStreamNotFound) || errors.Is(err, nats.ErrBucketNotFound) {
			return fmt.Errorf("%w: bucket %s", core.ErrNotFound, bucket)
		}
		return core.Transient(fmt.Errorf("open bucket %s: %w", bucket, err))
	}

	if err := store.Delete(name); err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return fmt.Errorf("%w: %s/%s", core.ErrNotFound, bucket, name)
		}
		return core.Transient(fmt.Errorf("delete %s/%s: %w", bucket, name, err))
	}
	return nil
}
