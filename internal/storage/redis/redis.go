package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/habitledger/internal/config"
	"github.com/goodtune/habitledger/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client      *redis.Client
	recordStore *recordStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	// Parse timeouts
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	// Determine address
	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "habitledger"
	}

	return &Store{
		client:      client,
		recordStore: &recordStore{client: client, prefix: prefix},
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Records returns the RecordStore implementation
func (s *Store) Records() storage.RecordStore {
	return s.recordStore
}

type recordStore struct {
	client *redis.Client
	prefix string
}

func (s *recordStore) recordKey(key storage.Key) string {
	return fmt.Sprintf("%s:record:%s", s.prefix, key)
}

func (s *recordStore) metaKey() string {
	return s.prefix + ":meta"
}

// Get retrieves a record value
func (s *recordStore) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// PutAll atomically stores every record and bumps the revision
func (s *recordStore) PutAll(ctx context.Context, records map[storage.Key][]byte) error {
	for key := range records {
		if err := key.Validate(); err != nil {
			return err
		}
	}

	script := redis.NewScript(putRecordsScript)

	keys := []string{s.metaKey()}
	args := []interface{}{time.Now().UTC().Format(time.RFC3339Nano)}

	for _, key := range storage.Keys {
		value, ok := records[key]
		if !ok {
			continue
		}
		keys = append(keys, s.recordKey(key))
		args = append(args, value)
	}

	return script.Run(ctx, s.client, keys, args...).Err()
}

// Delete removes a record
func (s *recordStore) Delete(ctx context.Context, key storage.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	script := redis.NewScript(deleteRecordScript)
	removed, err := script.Run(ctx, s.client,
		[]string{s.recordKey(key), s.metaKey()},
		time.Now().UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return err
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Meta returns the revision hash
func (s *recordStore) Meta(ctx context.Context) (*storage.Meta, error) {
	data, err := s.client.HGetAll(ctx, s.metaKey()).Result()
	if err != nil {
		return nil, err
	}
	return parseMeta(data)
}
