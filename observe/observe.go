// Package observe holds the passive progress subscribers fed by the
// navigation engine: linear bar, donut indicator, dot list, step counter,
// and the focus adapter. Observers are pure functions of the published
// Position plus their own rendering state; they never write back into
// navigation state.
//
// Observers see every commit before its corresponding settle. The focus
// adapter acts only at settle, so assistive surfaces are never pointed at
// a mid-transition slide.
package observe

import (
	"github.com/formstep-io/formstep/log"
)

// Position is the engine-published navigation state observers render from.
type Position struct {
	// Current is the committed slide index.
	Current int
	// Total is the slide count.
	Total int
	// MaxVisited is the highest index committed so far; progress semantics
	// are independent of backward navigation.
	MaxVisited int
	// SlideID identifies the current slide.
	SlideID string
}

// Observer receives position updates. OnCommit fires synchronously with
// the provisional position the moment an index commits; OnSettle fires
// once the transition's animation window has elapsed.
type Observer interface {
	OnCommit(pos Position)
	OnSettle(pos Position)
}

// Fanout dispatches positions to a set of observers, containing each
// observer's panic so one failure never blocks the rest.
type Fanout struct {
	logger    *log.Logger
	observers []Observer
}

// NewFanout creates a dispatcher. A nil logger discards recovery logs.
func NewFanout(logger *log.Logger, observers ...Observer) *Fanout {
	if logger == nil {
		logger = log.Nop()
	}
	return &Fanout{logger: logger, observers: observers}
}

// Add appends an observer. Not safe to call concurrently with dispatch.
func (f *Fanout) Add(obs Observer) {
	f.observers = append(f.observers, obs)
}

// Commit fans the provisional position out to all observers.
func (f *Fanout) Commit(pos Position) {
	for _, obs := range f.observers {
		f.dispatch(obs.OnCommit, pos, "commit")
	}
}

// Settle fans the settled position out to all observers.
func (f *Fanout) Settle(pos Position) {
	for _, obs := range f.observers {
		f.dispatch(obs.OnSettle, pos, "settle")
	}
}

func (f *Fanout) dispatch(fn func(Position), pos Position, phase string) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("observer panicked", map[string]any{
				"phase": phase,
				"panic": r,
			})
		}
	}()
	fn(pos)
}
