// Package metrics provides per-form navigation metrics.
//
// The Collector accumulates counters for one form instance. It is a leaf
// package with no internal dependencies; all increment methods are
// nil-receiver safe so callers never need to guard the wiring.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all collected counters.
// Safe to read concurrently after creation.
type Snapshot struct {
	// Navigation
	Commits        int64
	Settles        int64
	RejectedBounds int64
	Queued         int64
	QueueDropped   int64
	QueueDeduped   int64

	// Validation
	ValidationRuns     int64
	ValidationFailures int64

	// Persistence
	SaveFailures int64
	LoadFailures int64

	// Lifecycle
	Submissions int64
	Resets      int64

	// Dimensions (informational, set at construction)
	FormID   string
	FormName string
}

// Collector accumulates metrics for a single form instance.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	commits        int64
	settles        int64
	rejectedBounds int64
	queued         int64
	queueDropped   int64
	queueDeduped   int64

	validationRuns     int64
	validationFailures int64

	saveFailures int64
	loadFailures int64

	submissions int64
	resets      int64

	formID   string
	formName string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(formID, formName string) *Collector {
	return &Collector{formID: formID, formName: formName}
}

// IncCommit records a committed transition.
func (c *Collector) IncCommit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.commits++
	c.mu.Unlock()
}

// IncSettle records a settled transition.
func (c *Collector) IncSettle() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.settles++
	c.mu.Unlock()
}

// IncRejectedBounds records an out-of-bounds request rejected as a no-op.
func (c *Collector) IncRejectedBounds() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.rejectedBounds++
	c.mu.Unlock()
}

// IncQueued records a request deferred into the pending queue.
func (c *Collector) IncQueued() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.queued++
	c.mu.Unlock()
}

// IncQueueDropped records a request dropped because the queue was full.
func (c *Collector) IncQueueDropped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.queueDropped++
	c.mu.Unlock()
}

// IncQueueDeduped records a request skipped as a duplicate queue entry.
func (c *Collector) IncQueueDeduped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.queueDeduped++
	c.mu.Unlock()
}

// IncValidationRun records one validation pass.
func (c *Collector) IncValidationRun() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.validationRuns++
	c.mu.Unlock()
}

// IncValidationFailure records a failed validation pass.
func (c *Collector) IncValidationFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.validationFailures++
	c.mu.Unlock()
}

// IncSaveFailure records a persistence save failure.
func (c *Collector) IncSaveFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.saveFailures++
	c.mu.Unlock()
}

// IncLoadFailure records a persistence load failure.
func (c *Collector) IncLoadFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.loadFailures++
	c.mu.Unlock()
}

// IncSubmission records a completed submission.
func (c *Collector) IncSubmission() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.submissions++
	c.mu.Unlock()
}

// IncReset records a form reset.
func (c *Collector) IncReset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.resets++
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all counters. The
// Collector can continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Commits:        c.commits,
		Settles:        c.settles,
		RejectedBounds: c.rejectedBounds,
		Queued:         c.queued,
		QueueDropped:   c.queueDropped,
		QueueDeduped:   c.queueDeduped,

		ValidationRuns:     c.validationRuns,
		ValidationFailures: c.validationFailures,

		SaveFailures: c.saveFailures,
		LoadFailures: c.loadFailures,

		Submissions: c.submissions,
		Resets:      c.resets,

		FormID:   c.formID,
		FormName: c.formName,
	}
}
