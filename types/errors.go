package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Use errors.Is for typed
// assertions.
var (
	// ErrUsage indicates a caller error: an invalid index or a missing
	// slide/group/field reference. Navigation treats these as logged
	// no-ops; validation reports them to the caller.
	ErrUsage = errors.New("usage error")

	// ErrValidation indicates one or more fields failed validation. It
	// blocks forward navigation and submission only, never backward
	// navigation.
	ErrValidation = errors.New("validation failed")

	// ErrStructural indicates the registry changed without the engine
	// being notified, leaving an out-of-range index. Detected at the next
	// navigation request and recovered by clamping.
	ErrStructural = errors.New("structural inconsistency")

	// ErrPersistence indicates the store is unavailable, over quota, or
	// holds a corrupt record. Callers degrade to in-memory state; this is
	// never fatal to navigation or validation.
	ErrPersistence = errors.New("persistence failure")
)

// UsageError wraps ErrUsage with the offending operation and reference.
func UsageError(op string, ref any) error {
	return fmt.Errorf("%s: %v: %w", op, ref, ErrUsage)
}
