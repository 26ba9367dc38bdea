package types

import "time"

// FormDataSnapshot maps slide ID to field key to collected value. Values
// are scalars, []string for checkbox sets, or []FileRef for file inputs.
type FormDataSnapshot map[string]map[string]any

// Clone returns a deep copy of the snapshot's map structure. Leaf values
// are shared; callers treat them as immutable.
func (s FormDataSnapshot) Clone() FormDataSnapshot {
	out := make(FormDataSnapshot, len(s))
	for slideID, fields := range s {
		cp := make(map[string]any, len(fields))
		for k, v := range fields {
			cp[k] = v
		}
		out[slideID] = cp
	}
	return out
}

// SnapshotRecord is the persisted state layout: the form data snapshot
// wrapped with identity and expiry. Fields use msgpack tags to match the
// stored wire format.
type SnapshotRecord struct {
	// FormID identifies the form instance the record belongs to.
	FormID string `msgpack:"form_id" json:"form_id"`
	// Timestamp is when the record was written (Unix milliseconds).
	Timestamp int64 `msgpack:"timestamp" json:"timestamp"`
	// ExpiresAt is when the record lapses (Unix milliseconds). Stores
	// double-check this even when the backend enforces TTL natively.
	ExpiresAt int64 `msgpack:"expires_at" json:"expires_at"`
	// Data is the snapshot payload.
	Data FormDataSnapshot `msgpack:"data" json:"data"`
}

// Expired reports whether the record has lapsed at the given instant.
func (r *SnapshotRecord) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixMilli() >= r.ExpiresAt
}

// NewSnapshotRecord stamps a snapshot with identity and expiry.
func NewSnapshotRecord(formID string, data FormDataSnapshot, now time.Time, ttl time.Duration) *SnapshotRecord {
	return &SnapshotRecord{
		FormID:    formID,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
		Data:      data,
	}
}
