// Package engine implements the navigation state machine: a two-state
// (idle/transitioning) core that arbitrates slide changes through a
// debounce window and a small FIFO queue, commits the index
// synchronously, and settles after the animation delay.
//
// Navigation mutates exactly one authority: the committed index lives
// here and nowhere else. Observers and event listeners are read-only;
// handlers must never call back into the engine synchronously.
package engine

import (
	"slices"
	"sync"
	"time"

	"github.com/formstep-io/formstep/bus"
	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/metrics"
	"github.com/formstep-io/formstep/observe"
	"github.com/formstep-io/formstep/registry"
	"github.com/formstep-io/formstep/types"
)

const (
	// DefaultDebounceWindow is how long after a commit new requests are
	// deferred into the queue instead of committing immediately.
	DefaultDebounceWindow = 500 * time.Millisecond

	// DefaultAnimationDelay is the commit-to-settle interval.
	DefaultAnimationDelay = 300 * time.Millisecond

	// DefaultRequeueDelay spaces a dequeued request from the settle that
	// released it.
	DefaultRequeueDelay = 50 * time.Millisecond

	// DefaultQueueCapacity bounds the pending request queue.
	DefaultQueueCapacity = 3
)

// Gate validates the current slide before forward navigation. Nil gate
// means Next never blocks.
type Gate interface {
	Validate(slide *types.Slide) types.ValidationResult
}

// Config tunes the engine. Zero values take documented defaults.
type Config struct {
	// DebounceWindow defers requests arriving within this interval after
	// a commit while a transition is still in flight.
	DebounceWindow time.Duration

	// AnimationDelay is the interval between commit and settle.
	AnimationDelay time.Duration

	// RequeueDelay is the pause before a queued request replays after
	// settle.
	RequeueDelay time.Duration

	// QueueCapacity caps pending requests; excess requests are dropped.
	QueueCapacity int

	// InitialIndex is the starting slide, clamped into range.
	InitialIndex int

	// ValidateForward gates Next on the current slide's validation.
	ValidateForward bool

	// RetargetForward picks the slide after a group when the current
	// slide's group hides; false prefers the slide before it.
	RetargetForward bool
}

func (c *Config) withDefaults() {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.AnimationDelay <= 0 {
		c.AnimationDelay = DefaultAnimationDelay
	}
	if c.RequeueDelay <= 0 {
		c.RequeueDelay = DefaultRequeueDelay
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
}

// Engine is the navigation state machine for one form instance.
type Engine struct {
	cfg       Config
	reg       *registry.Registry
	gate      Gate
	events    *bus.Bus
	observers *observe.Fanout
	sched     Scheduler
	logger    *log.Logger
	collector *metrics.Collector

	mu            sync.Mutex
	current       int
	maxVisited    int
	history       []int
	transitioning bool
	lastCommit    time.Time
	pending       []int
	settleTimer   Timer
}

// New wires an engine to its registry, validation gate, event bus, and
// observer fanout. The gate, events, observers, collector, and logger
// may be nil; a nil scheduler uses the wall clock. The engine subscribes
// to registry changes so structural mutations re-anchor the index.
func New(cfg Config, reg *registry.Registry, gate Gate, events *bus.Bus, observers *observe.Fanout, sched Scheduler, logger *log.Logger, collector *metrics.Collector) *Engine {
	cfg.withDefaults()
	if sched == nil {
		sched = NewWallScheduler()
	}
	if logger == nil {
		logger = log.Nop()
	}
	if observers == nil {
		observers = observe.NewFanout(logger)
	}

	initial := cfg.InitialIndex
	if total := reg.Len(); initial >= total {
		initial = total - 1
	}
	if initial < 0 {
		initial = 0
	}

	e := &Engine{
		cfg:        cfg,
		reg:        reg,
		gate:       gate,
		events:     events,
		observers:  observers,
		sched:      sched,
		logger:     logger,
		collector:  collector,
		current:    initial,
		maxVisited: initial,
		history:    []int{initial},
	}
	reg.Subscribe(e.handleRegistryChange)
	return e
}

// Prime publishes the initial position to observers without recording a
// transition. Call once after construction, before any navigation.
func (e *Engine) Prime() {
	e.mu.Lock()
	pos := e.positionLocked()
	e.mu.Unlock()

	e.observers.Commit(pos)
	e.observers.Settle(pos)
}

// positionLocked builds the observer position. Caller holds e.mu.
func (e *Engine) positionLocked() observe.Position {
	pos := observe.Position{
		Current:    e.current,
		Total:      e.reg.Len(),
		MaxVisited: e.maxVisited,
	}
	if s := e.reg.At(e.current); s != nil {
		pos.SlideID = s.ID
	}
	return pos
}

// RequestGoTo asks for a transition to the target index. The request is
// arbitrated in order: out-of-range targets are silently rejected,
// targets inside a hidden group force the group visible first, requests
// landing inside the debounce window of an in-flight transition are
// queued (deduplicated, capacity-bounded), and a request for the current
// idle slide is a no-op. Everything else commits synchronously; the
// settle follows after the animation delay.
func (e *Engine) RequestGoTo(target int) {
	if total := e.reg.Len(); total == 0 || target < 0 || target >= total {
		e.collector.IncRejectedBounds()
		e.logger.Debug("navigation rejected: index out of range", map[string]any{
			"target": target,
			"total":  total,
		})
		return
	}

	// Targeting a slide inside a hidden group reveals the group. Done
	// before taking e.mu: the visibility notification re-enters
	// handleRegistryChange, which locks the engine.
	if e.reg.GroupHidden(target) {
		if s := e.reg.At(target); s != nil && s.GroupID != "" {
			e.logger.Info("revealing hidden group for navigation", map[string]any{
				"group_id": s.GroupID,
				"target":   target,
			})
			e.reg.SetGroupVisibility(s.GroupID, true)
		}
	}

	e.mu.Lock()

	// The registry may have shrunk since construction or the last
	// request; re-anchor before arbitrating.
	total := e.reg.Len()
	if target >= total {
		e.mu.Unlock()
		e.collector.IncRejectedBounds()
		return
	}
	if e.current >= total {
		e.current = total - 1
	}

	now := e.sched.Now()
	if e.transitioning && now.Sub(e.lastCommit) < e.cfg.DebounceWindow {
		e.enqueueLocked(target)
		e.mu.Unlock()
		return
	}

	if target == e.current && !e.transitioning {
		e.mu.Unlock()
		return
	}

	slide := e.reg.At(target)
	if slide == nil {
		e.mu.Unlock()
		e.logger.Error("target slide vanished before commit", map[string]any{"target": target})
		return
	}

	// Commit. A still-running animation past its debounce window is
	// superseded: cancel its settle and restart the clock.
	if e.settleTimer != nil {
		e.settleTimer.Stop()
		e.settleTimer = nil
	}
	from := e.current
	e.current = target
	e.history = append(e.history, target)
	if target > e.maxVisited {
		e.maxVisited = target
	}
	e.transitioning = true
	e.lastCommit = now
	pos := e.positionLocked()
	e.collector.IncCommit()

	// Provisional notification happens under the lock so a concurrent
	// settle cannot overtake it. Observers and handlers are read-only by
	// contract and must not call back into the engine.
	e.observers.Commit(pos)
	if e.events != nil {
		e.events.Publish(bus.Event{
			Type: bus.EventSlideChange,
			Payload: bus.SlideChangePayload{
				FromIndex: from,
				ToIndex:   target,
				SlideID:   slide.ID,
				Total:     pos.Total,
			},
		})
	}
	e.logger.Debug("slide committed", map[string]any{
		"from":     from,
		"to":       target,
		"slide_id": slide.ID,
	})

	e.mu.Unlock()

	// Scheduled outside the lock so schedulers that fire synchronously
	// (tests) can re-enter settle.
	t := e.sched.AfterFunc(e.cfg.AnimationDelay, func() { e.settle(from) })

	e.mu.Lock()
	if e.transitioning && e.lastCommit.Equal(now) && e.settleTimer == nil {
		e.settleTimer = t
	} else {
		// The transition already settled or was superseded; this timer
		// must not fire a second settle.
		t.Stop()
	}
	e.mu.Unlock()
}

// enqueueLocked defers a request, deduplicating against queue contents
// and dropping past capacity. Caller holds e.mu.
func (e *Engine) enqueueLocked(target int) {
	if slices.Contains(e.pending, target) {
		e.collector.IncQueueDeduped()
		e.logger.Debug("duplicate request already queued", map[string]any{"target": target})
		return
	}
	if len(e.pending) >= e.cfg.QueueCapacity {
		e.collector.IncQueueDropped()
		e.logger.Warn("navigation queue full, dropping request", map[string]any{
			"target":   target,
			"capacity": e.cfg.QueueCapacity,
		})
		return
	}
	e.pending = append(e.pending, target)
	e.collector.IncQueued()
	e.logger.Debug("request queued", map[string]any{
		"target": target,
		"depth":  len(e.pending),
	})
}

// settle completes the in-flight transition: flips back to idle, fires
// the settle notifications, and replays the oldest queued request after
// the requeue delay.
func (e *Engine) settle(from int) {
	e.mu.Lock()
	e.transitioning = false
	e.settleTimer = nil
	if total := e.reg.Len(); e.current >= total && total > 0 {
		e.current = total - 1
	}
	pos := e.positionLocked()

	next := -1
	if len(e.pending) > 0 {
		next = e.pending[0]
		e.pending = e.pending[1:]
	}
	e.collector.IncSettle()

	e.observers.Settle(pos)
	if e.events != nil {
		e.events.Publish(bus.Event{
			Type: bus.EventNavigationComplete,
			Payload: bus.NavigationCompletePayload{
				FromIndex: from,
				ToIndex:   pos.Current,
				SlideID:   pos.SlideID,
				Total:     pos.Total,
			},
		})
	}
	e.mu.Unlock()

	if next >= 0 {
		e.sched.AfterFunc(e.cfg.RequeueDelay, func() { e.RequestGoTo(next) })
	}
}

// Next validates the current slide (when the forward gate is enabled)
// and advances one index. It reports whether the advance was requested;
// a false return carries the failing validation result.
func (e *Engine) Next() (types.ValidationResult, bool) {
	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()

	if e.cfg.ValidateForward && e.gate != nil {
		slide := e.reg.At(cur)
		res := e.gate.Validate(slide)
		e.collector.IncValidationRun()
		if !res.Valid {
			e.collector.IncValidationFailure()
			e.logger.Info("forward navigation blocked by validation", map[string]any{
				"slide_id": res.SlideID,
				"errors":   len(res.Errors),
			})
			return res, false
		}
		e.RequestGoTo(cur + 1)
		return res, true
	}

	e.RequestGoTo(cur + 1)
	return types.ValidationResult{Valid: true}, true
}

// Prev steps back one index. Backward navigation never validates.
func (e *Engine) Prev() {
	e.mu.Lock()
	cur := e.current
	e.mu.Unlock()
	e.RequestGoTo(cur - 1)
}

// Reset returns the engine to its initial position, clearing history,
// progress, and any pending queue. Observers are re-primed.
func (e *Engine) Reset() {
	e.mu.Lock()
	if e.settleTimer != nil {
		e.settleTimer.Stop()
		e.settleTimer = nil
	}
	initial := e.cfg.InitialIndex
	if total := e.reg.Len(); initial >= total {
		initial = total - 1
	}
	if initial < 0 {
		initial = 0
	}
	e.current = initial
	e.maxVisited = initial
	e.history = []int{initial}
	e.pending = nil
	e.transitioning = false
	e.lastCommit = time.Time{}
	pos := e.positionLocked()
	e.mu.Unlock()

	e.observers.Commit(pos)
	e.observers.Settle(pos)
}

// handleRegistryChange re-anchors navigation after structural mutations:
// the index clamps into the new range, removal of the current slide
// falls through to its successor, and hiding the group that contains the
// current slide retargets to the nearest fully visible slide.
func (e *Engine) handleRegistryChange(c registry.Change) {
	if e.events != nil {
		e.events.Publish(bus.Event{
			Type:    bus.EventSlidesListUpdated,
			Payload: bus.SlidesListUpdatedPayload{Total: c.Total},
		})
	}

	var (
		notify   bool
		pos      observe.Position
		retarget = -1
	)

	e.mu.Lock()
	switch c.Kind {
	case registry.ChangeRemove:
		switch {
		case c.Index < e.current:
			e.current--
		case c.Index == e.current:
			// Successor slides into the vacated index; clamp when the
			// tail was removed.
			if e.current >= c.Total && c.Total > 0 {
				e.current = c.Total - 1
			}
			notify = true
		}
		if e.maxVisited >= c.Total && c.Total > 0 {
			e.maxVisited = c.Total - 1
		}
		if e.current >= c.Total && c.Total > 0 {
			e.current = c.Total - 1
			notify = true
		}
		e.prunePendingLocked(c.Total)

	case registry.ChangeInsert:
		if c.Index <= e.current {
			e.current++
			if e.maxVisited < e.current {
				e.maxVisited = e.current
			}
			notify = true
		}

	case registry.ChangeGroupVisibility:
		if !c.Visible {
			if s := e.reg.At(e.current); s != nil && s.GroupID == c.GroupID {
				retarget = e.retargetLocked(c.GroupID)
			}
		}

	case registry.ChangeDiscover:
		if c.Total == 0 {
			e.current = 0
			e.maxVisited = 0
			e.history = []int{0}
			e.pending = nil
		} else if e.current >= c.Total {
			e.current = c.Total - 1
			notify = true
		}
		e.prunePendingLocked(c.Total)
	}

	if notify {
		pos = e.positionLocked()
	}
	e.mu.Unlock()

	if notify {
		e.observers.Commit(pos)
		e.observers.Settle(pos)
	}
	if retarget >= 0 {
		e.RequestGoTo(retarget)
	}
}

// retargetLocked picks where navigation lands when the current slide's
// group hides: the slide after the group when the forward policy is set,
// else the slide before it; when that choice is itself hidden or out of
// range, the first fully visible slide wins. Caller holds e.mu.
func (e *Engine) retargetLocked(groupID string) int {
	first, last, ok := e.reg.GroupBounds(groupID)
	if !ok {
		return e.reg.FirstFullyVisible()
	}

	cand := first - 1
	if e.cfg.RetargetForward {
		cand = last + 1
	}
	if cand < 0 || cand >= e.reg.Len() || e.reg.GroupHidden(cand) {
		cand = e.reg.FirstFullyVisible()
	}
	return cand
}

// prunePendingLocked drops queued targets the shrunken list can no
// longer satisfy. Caller holds e.mu.
func (e *Engine) prunePendingLocked(total int) {
	if len(e.pending) == 0 {
		return
	}
	kept := e.pending[:0]
	for _, t := range e.pending {
		if t < total {
			kept = append(kept, t)
		}
	}
	e.pending = kept
}

// Current returns the committed slide index.
func (e *Engine) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// MaxVisited returns the highest index committed so far.
func (e *Engine) MaxVisited() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxVisited
}

// Transitioning reports whether a commit is awaiting its settle.
func (e *Engine) Transitioning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transitioning
}

// History returns a copy of the committed index sequence, oldest first.
func (e *Engine) History() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// Pending returns a copy of the queued targets, oldest first.
func (e *Engine) Pending() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pending)
}

// Position returns the engine's current observer-facing position.
func (e *Engine) Position() observe.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}
