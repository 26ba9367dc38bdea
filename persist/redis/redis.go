// Package redis implements a Redis-backed persist.Store.
//
// Records are stored msgpack-encoded under a configurable key prefix, with
// the TTL enforced natively via SET EX. The record-level expires_at stamp
// is double-checked on load to guard against clock skew between writers.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/formstep-io/formstep/persist"
	"github.com/formstep-io/formstep/types"
)

// DefaultPrefix is the default key prefix.
const DefaultPrefix = "formstep:snapshot:"

// DefaultTimeout is the default per-operation timeout.
const DefaultTimeout = 5 * time.Second

// Config configures the Redis store.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Prefix is the key prefix (default: formstep:snapshot:).
	Prefix string
	// Timeout is the per-operation timeout (default 5s).
	Timeout time.Duration
}

// Store persists snapshot records in Redis.
type Store struct {
	config Config
	client *goredis.Client
}

// New creates a Redis store from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis store requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis store: invalid URL: %w", err)
	}

	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Store{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

func (s *Store) key(key string) string {
	return s.config.Prefix + key
}

// Save writes the record with a native Redis TTL.
func (s *Store) Save(ctx context.Context, key string, rec *types.SnapshotRecord, ttl time.Duration) error {
	data, err := persist.EncodeRecord(rec)
	if err != nil {
		return &persist.StoreError{Op: "save", Key: key, Err: err}
	}
	if ttl <= 0 {
		ttl = persist.DefaultTTL
	}

	opCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.client.Set(opCtx, s.key(key), data, ttl).Err(); err != nil {
		return &persist.StoreError{Op: "save", Key: key, Err: err}
	}
	return nil
}

// Load returns the record for key, or nil when absent, expired, or corrupt.
// A corrupt or stale entry is cleared as a side effect.
func (s *Store) Load(ctx context.Context, key string) (*types.SnapshotRecord, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	data, err := s.client.Get(opCtx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, &persist.StoreError{Op: "load", Key: key, Err: err}
	}

	rec, err := persist.DecodeRecord(data)
	if err != nil {
		_ = s.Clear(ctx, key)
		return nil, &persist.StoreError{Op: "load", Key: key, Err: err}
	}

	// Redis already expires the key; the record stamp catches entries
	// written by a skewed or older client.
	if rec.Expired(time.Now()) {
		_ = s.Clear(ctx, key)
		return nil, nil
	}
	return rec, nil
}

// Clear removes the record for key.
func (s *Store) Clear(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if err := s.client.Del(opCtx, s.key(key)).Err(); err != nil {
		return &persist.StoreError{Op: "clear", Key: key, Err: err}
	}
	return nil
}

// ClearAll removes every record under the store's prefix, scanning in
// batches to avoid blocking the server.
func (s *Store) ClearAll(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(opCtx, cursor, s.config.Prefix+"*", 100).Result()
		if err != nil {
			return &persist.StoreError{Op: "clear_all", Err: err}
		}
		if len(keys) > 0 {
			if err := s.client.Del(opCtx, keys...).Err(); err != nil {
				return &persist.StoreError{Op: "clear_all", Err: err}
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Exists reports whether a live record is present for key.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	n, err := s.client.Exists(opCtx, s.key(key)).Result()
	if err != nil {
		return false, &persist.StoreError{Op: "exists", Key: key, Err: err}
	}
	return n > 0, nil
}

// Close releases the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Verify Store implements the store interface.
var _ persist.Store = (*Store)(nil)
