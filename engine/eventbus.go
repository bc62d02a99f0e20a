package engine

import (
	"sync"
	"time"
)

// SubscriberID identifies a subscription for Unsubscribe.
type SubscriberID uint64

// SubscriberFunc handles one event.
type SubscriberFunc func(Event)

// typeMask selects event types; zero means all types.
type typeMask uint64

func maskOf(types []EventType) typeMask {
	var m typeMask
	for _, t := range types {
		m |= 1 << uint(t)
	}
	return m
}

func (m typeMask) has(t EventType) bool { return m == 0 || m&(1<<uint(t)) != 0 }

type subscription struct {
	id   SubscriberID
	mask typeMask
	fn   SubscriberFunc
}

// EventBus dispatches engine events synchronously, in subscription order,
// on the emitting goroutine. Events without a timestamp are stamped with
// the bus clock so loop time and event time agree.
type EventBus struct {
	clock func() time.Time

	mu     sync.RWMutex
	subs   []subscription
	lastID SubscriberID
}

// NewEventBus creates a bus stamped by clock; nil means time.Now.
func NewEventBus(clock func() time.Time) *EventBus {
	if clock == nil {
		clock = time.Now
	}
	return &EventBus{clock: clock}
}

// Subscribe registers fn for every event type.
func (eb *EventBus) Subscribe(fn SubscriberFunc) SubscriberID {
	return eb.add(0, fn)
}

// SubscribeTypes registers fn for the listed event types only.
func (eb *EventBus) SubscribeTypes(fn SubscriberFunc, types ...EventType) SubscriberID {
	return eb.add(maskOf(types), fn)
}

func (eb *EventBus) add(mask typeMask, fn SubscriberFunc) SubscriberID {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastID++
	eb.subs = append(eb.subs, subscription{id: eb.lastID, mask: mask, fn: fn})
	return eb.lastID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (eb *EventBus) Unsubscribe(id SubscriberID) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	kept := eb.subs[:0]
	for _, s := range eb.subs {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	eb.subs = kept
}

// Len reports the number of live subscriptions.
func (eb *EventBus) Len() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subs)
}

// Emit delivers evt to every matching subscriber. Subscribers may
// subscribe or unsubscribe from inside a callback.
func (eb *EventBus) Emit(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = eb.clock()
	}
	eb.mu.RLock()
	subs := append([]subscription(nil), eb.subs...)
	eb.mu.RUnlock()

	for _, s := range subs {
		if s.mask.has(evt.Type) {
			s.fn(evt)
		}
	}
}
