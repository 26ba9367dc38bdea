package persist

import (
	"context"
	"sync"
	"time"

	"github.com/formstep-io/formstep/types"
)

// MemoryStore is an in-process Store. It backs tests and the degraded mode
// used when no durable backend is configured. Records are kept encoded so
// the memory and redis stores exercise the same codec path.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock overrides the store's time source. Test hook.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

// Save writes the record under key.
func (s *MemoryStore) Save(_ context.Context, key string, rec *types.SnapshotRecord, ttl time.Duration) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return wrap("save", key, err)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{
		data:      data,
		expiresAt: s.now().Add(effectiveTTL(ttl)),
	}
	s.mu.Unlock()
	return nil
}

// Load returns the record for key, clearing it when expired.
func (s *MemoryStore) Load(_ context.Context, key string) (*types.SnapshotRecord, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	rec, err := DecodeRecord(entry.data)
	if err != nil {
		// Corrupt entry: clear it and report no data.
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, wrap("load", key, err)
	}
	return rec, nil
}

// Clear removes the record for key.
func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// ClearAll removes every record.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Exists reports whether a live record is present for key.
func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if ok && s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return false, nil
	}
	return ok, nil
}

// Close releases store resources. No-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// Verify MemoryStore implements the store interface.
var _ Store = (*MemoryStore)(nil)
