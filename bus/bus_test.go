package bus_test

import (
	"testing"

	"github.com/formstep-io/formstep/bus"
)

func TestPublish_DeliversInSubscriptionOrder(t *testing.T) {
	b := bus.New(nil)

	var order []int
	b.Subscribe(bus.EventSlideChange, func(bus.Event) { order = append(order, 1) })
	b.Subscribe(bus.EventSlideChange, func(bus.Event) { order = append(order, 2) })

	b.Publish(bus.Event{Type: bus.EventSlideChange, Payload: bus.SlideChangePayload{ToIndex: 1}})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("unexpected delivery order: %v", order)
	}
}

func TestPublish_TypeIsolation(t *testing.T) {
	b := bus.New(nil)

	called := false
	b.Subscribe(bus.EventReset, func(bus.Event) { called = true })

	b.Publish(bus.Event{Type: bus.EventSubmit, Payload: bus.SubmitPayload{FormID: "f"}})
	if called {
		t.Error("reset handler received a submit event")
	}
}

func TestPublish_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	b := bus.New(nil)

	survived := false
	b.Subscribe(bus.EventSlideChange, func(bus.Event) { panic("observer bug") })
	b.Subscribe(bus.EventSlideChange, func(bus.Event) { survived = true })

	b.Publish(bus.Event{Type: bus.EventSlideChange, Payload: bus.SlideChangePayload{}})

	if !survived {
		t.Error("second handler skipped after first panicked")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := bus.New(nil)

	count := 0
	unsub := b.Subscribe(bus.EventSlideChange, func(bus.Event) { count++ })

	b.Publish(bus.Event{Type: bus.EventSlideChange})
	unsub()
	b.Publish(bus.Event{Type: bus.EventSlideChange})

	if count != 1 {
		t.Errorf("expected exactly one delivery, got %d", count)
	}
}
