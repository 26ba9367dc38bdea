package engine

import "time"

// Timer is a cancelable pending callback.
type Timer interface {
	// Stop cancels the timer. Reports whether the callback was prevented
	// from running.
	Stop() bool
}

// Scheduler abstracts time for the engine: the debounce window reads Now,
// and settle/requeue run on AfterFunc callbacks. Tests inject a manual
// scheduler to drive transitions deterministically.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// wallScheduler is the production scheduler backed by the runtime clock.
type wallScheduler struct{}

// NewWallScheduler returns the real-time scheduler.
func NewWallScheduler() Scheduler { return wallScheduler{} }

func (wallScheduler) Now() time.Time { return time.Now() }

func (wallScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
