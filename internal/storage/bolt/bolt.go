package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/habitledger/internal/storage"
	"go.etcd.io/bbolt"
)

const (
	bucketRecords = "records"
	bucketMeta    = "meta"

	metaKey = "meta"
)

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketRecords, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Records returns the record store.
func (s *Store) Records() storage.RecordStore { return &recordStore{db: s.db} }

type recordStore struct {
	db *bbolt.DB
}

// Get returns a copy of the stored value; bolt memory is only valid inside
// the transaction.
func (r *recordStore) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	var out []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(key))
		if value == nil {
			return storage.ErrNotFound
		}
		out = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *recordStore) PutAll(ctx context.Context, records map[storage.Key][]byte) error {
	for key := range records {
		if err := key.Validate(); err != nil {
			return err
		}
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketRecords)
		}
		for _, key := range storage.Keys {
			value, ok := records[key]
			if !ok {
				continue
			}
			if err := b.Put([]byte(key), value); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		return bumpMeta(tx)
	})
}

func (r *recordStore) Delete(ctx context.Context, key storage.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	return r.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketRecords))
		if b == nil {
			return storage.ErrNotFound
		}
		if b.Get([]byte(key)) == nil {
			return storage.ErrNotFound
		}
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		return bumpMeta(tx)
	})
}

func (r *recordStore) Meta(ctx context.Context) (*storage.Meta, error) {
	meta := &storage.Meta{}
	err := r.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketMeta))
		if b == nil {
			return nil
		}
		value := b.Get([]byte(metaKey))
		if value == nil {
			return nil
		}
		return unmarshal(value, meta)
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

func bumpMeta(tx *bbolt.Tx) error {
	b := tx.Bucket([]byte(bucketMeta))
	if b == nil {
		return fmt.Errorf("bucket missing: %s", bucketMeta)
	}

	var meta storage.Meta
	if value := b.Get([]byte(metaKey)); value != nil {
		if err := unmarshal(value, &meta); err != nil {
			return err
		}
	}
	meta.Revision++
	meta.UpdatedAt = time.Now().UTC()

	data, err := marshal(meta)
	if err != nil {
		return err
	}
	return b.Put([]byte(metaKey), data)
}

func marshal(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return data, nil
}

func unmarshal(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}
