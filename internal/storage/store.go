package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Records() RecordStore
}

// RecordStore is the local key-value store behind the tracker. Values are
// opaque documents; decoding and defaulting belong to the caller.
type RecordStore interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	// PutAll writes every record in one atomic step and bumps the revision.
	PutAll(ctx context.Context, records map[Key][]byte) error
	// Delete removes one record; ErrNotFound when it was not stored.
	Delete(ctx context.Context, key Key) error
	// Meta reports the revision and time of the last write.
	Meta(ctx context.Context) (*Meta, error)
}
