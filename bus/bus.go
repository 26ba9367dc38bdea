// Package bus is the lifecycle event channel between the navigation core
// and external read-only listeners (debug surfaces, analytics, hosts).
//
// Each event name maps to exactly one payload type:
//
//	slide_change        → SlideChangePayload (at commit, provisional)
//	navigation_complete → NavigationCompletePayload (at settle)
//	slides_list_updated → SlidesListUpdatedPayload
//	reset               → ResetPayload
//	submit              → SubmitPayload
//
// Handler panics are recovered and logged individually, so one listener's
// failure never blocks the others or the engine.
package bus

import (
	"sync"

	"github.com/formstep-io/formstep/log"
	"github.com/formstep-io/formstep/types"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventSlideChange        EventType = "slide_change"
	EventNavigationComplete EventType = "navigation_complete"
	EventSlidesListUpdated  EventType = "slides_list_updated"
	EventReset              EventType = "reset"
	EventSubmit             EventType = "submit"
)

// SlideChangePayload accompanies slide_change, published synchronously at
// commit with the provisional position.
type SlideChangePayload struct {
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	SlideID   string `json:"slide_id"`
	Total     int    `json:"total"`
}

// NavigationCompletePayload accompanies navigation_complete, published at
// settle once the transition's animation window has elapsed.
type NavigationCompletePayload struct {
	FromIndex int    `json:"from_index"`
	ToIndex   int    `json:"to_index"`
	SlideID   string `json:"slide_id"`
	Total     int    `json:"total"`
}

// SlidesListUpdatedPayload accompanies slides_list_updated after any
// structural registry change.
type SlidesListUpdatedPayload struct {
	Total int `json:"total"`
}

// ResetPayload accompanies reset.
type ResetPayload struct {
	FormID string `json:"form_id"`
}

// SubmitPayload accompanies submit, carrying the collected snapshot.
type SubmitPayload struct {
	FormID string                 `json:"form_id"`
	Data   types.FormDataSnapshot `json:"data"`
}

// Event pairs a name with its payload.
type Event struct {
	Type    EventType
	Payload any
}

// Handler consumes events. Handlers must not mutate the payload.
type Handler func(Event)

// Bus is a synchronous publish/subscribe dispatcher.
type Bus struct {
	mu       sync.Mutex
	logger   *log.Logger
	handlers map[EventType][]*subscription
}

type subscription struct {
	fn Handler
}

// New creates an event bus. A nil logger discards recovery logs.
func New(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Nop()
	}
	return &Bus{
		logger:   logger,
		handlers: make(map[EventType][]*subscription),
	}
}

// Subscribe registers a handler for one event type and returns its
// unsubscribe function.
func (b *Bus) Subscribe(t EventType, h Handler) (unsubscribe func()) {
	sub := &subscription{fn: h}
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], sub)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[t]
		for i, s := range subs {
			if s == sub {
				b.handlers[t] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every subscriber of its type,
// synchronously, in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	subs := make([]*subscription, len(b.handlers[e.Type]))
	copy(subs, b.handlers[e.Type])
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliver(sub, e)
	}
}

// deliver invokes one handler, containing its panic.
func (b *Bus) deliver(sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", map[string]any{
				"event": string(e.Type),
				"panic": r,
			})
		}
	}()
	sub.fn(e)
}
