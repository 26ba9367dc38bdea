// Package persist defines the durable, expiring key-value store boundary.
//
// Stores hold opaque snapshot records keyed by form identifier. They know
// nothing about form semantics beyond the record envelope. All failures
// classify under types.ErrPersistence so callers can degrade to in-memory
// state instead of failing navigation or validation.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formstep-io/formstep/types"
)

// DefaultTTL is the record lifetime applied when the caller passes zero.
const DefaultTTL = 7 * 24 * time.Hour

// Store is a durable key-value store with per-record expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save writes the record under key with the given TTL. A zero ttl
	// applies DefaultTTL.
	Save(ctx context.Context, key string, rec *types.SnapshotRecord, ttl time.Duration) error

	// Load returns the record for key, or (nil, nil) when the key is
	// absent or past its TTL. An expired entry is cleared as a side effect.
	Load(ctx context.Context, key string) (*types.SnapshotRecord, error)

	// Clear removes the record for key. Removing an absent key is not an
	// error.
	Clear(ctx context.Context, key string) error

	// ClearAll removes every record owned by this store.
	ClearAll(ctx context.Context) error

	// Exists reports whether a live (unexpired) record is present for key.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases store resources.
	Close() error
}

// StoreError wraps an underlying failure with the operation and key
// involved. It matches types.ErrPersistence via errors.Is.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("persist %s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *StoreError) Unwrap() error { return e.Err }

// Is reports a match for the persistence failure sentinel.
func (e *StoreError) Is(target error) bool { return errors.Is(types.ErrPersistence, target) }

// wrap classifies err as a persistence failure. Returns nil if err is nil.
func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: err}
}

// effectiveTTL normalizes the caller-supplied TTL.
func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
