package messaging

import (
	"log"
	"sync"
)

// Handler receives one event. Handlers run independently: a panic in one
// is recovered and logged, never propagated to the publisher or to the
// other handlers.
type Handler func(Event)

type subscriber struct {
	id int
	fn Handler
}

// Bus is the in-process publish/subscribe fallback path. No cross-process
// delivery; used when the broker is unreachable, and as the local dispatch
// point for events the consumer pulls off the broker.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	topics map[string][]subscriber
	all    []subscriber
}

func NewBus() *Bus {
	return &Bus{
		topics: make(map[string][]subscriber),
	}
}

// Subscribe registers a handler for one event type. The returned disposer
// removes the subscription.
func (b *Bus) Subscribe(eventType string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.topics[eventType] = append(b.topics[eventType], subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.topics[eventType]
		for i, s := range subs {
			if s.id == id {
				b.topics[eventType] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscriber{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.all {
			if s.id == id {
				b.all = append(b.all[:i], b.all[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all matching subscribers, catch-all
// subscribers included. Always succeeds from the caller's perspective.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	subs := make([]subscriber, 0, len(b.topics[evt.Type])+len(b.all))
	subs = append(subs, b.topics[evt.Type]...)
	subs = append(subs, b.all...)
	b.mu.RUnlock()

	for _, s := range subs {
		b.dispatch(s, evt)
	}
}

func (b *Bus) dispatch(s subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: handler panic on %s: %v", evt.Type, r)
		}
	}()
	s.fn(evt)
}
