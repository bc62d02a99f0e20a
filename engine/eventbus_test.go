package engine

import (
	"testing"
	"time"
)

func TestEventBusFilter(t *testing.T) {
	bus := NewEventBus(func() time.Time { return t0 })
	var all, modes []EventType
	bus.Subscribe(func(evt Event) { all = append(all, evt.Type) })
	bus.SubscribeTypes(func(evt Event) { modes = append(modes, evt.Type) }, EventModeChanged, EventSnapshot)

	bus.Emit(Event{Type: EventCommand})
	bus.Emit(Event{Type: EventModeChanged})
	bus.Emit(Event{Type: EventSnapshot})

	if len(all) != 3 {
		t.Errorf("unfiltered subscriber saw %d events, want 3", len(all))
	}
	if len(modes) != 2 || modes[0] != EventModeChanged || modes[1] != EventSnapshot {
		t.Errorf("filtered subscriber saw %v", modes)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	n := 0
	id := bus.Subscribe(func(Event) { n++ })
	bus.Subscribe(func(Event) {})
	bus.Emit(Event{Type: EventCommand})
	bus.Unsubscribe(id)
	bus.Unsubscribe(id)
	bus.Emit(Event{Type: EventCommand})
	if n != 1 {
		t.Errorf("callback ran %d times, want 1", n)
	}
	if bus.Len() != 1 {
		t.Errorf("Len = %d, want 1", bus.Len())
	}
}

func TestEventBusStampsWithClock(t *testing.T) {
	bus := NewEventBus(func() time.Time { return t0 })
	var got []time.Time
	bus.Subscribe(func(evt Event) { got = append(got, evt.Timestamp) })

	bus.Emit(Event{Type: EventCommand})
	explicit := t0.Add(time.Minute)
	bus.Emit(Event{Type: EventCommand, Timestamp: explicit})

	if !got[0].Equal(t0) {
		t.Errorf("stamp = %v, want bus clock %v", got[0], t0)
	}
	if !got[1].Equal(explicit) {
		t.Errorf("explicit stamp overwritten: %v", got[1])
	}
}

func TestEventBusSubscribeDuringEmit(t *testing.T) {
	bus := NewEventBus(nil)
	late := 0
	bus.Subscribe(func(Event) {
		bus.Subscribe(func(Event) { late++ })
	})
	bus.Emit(Event{Type: EventCommand})
	if late != 0 {
		t.Errorf("subscriber added mid-emit ran %d times", late)
	}
}
