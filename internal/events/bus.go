// Package events carries coordinator state changes to the entities
// that mirror them out, over a kelindar/event dispatcher.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher for bridge-internal
// broadcasting.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish delivers ev to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case StateUpdated:
		event.Publish(b.dispatcher, e)
	case AvailabilityChanged:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers a typed handler; the parameter type selects
// which events it receives. Returns an unsubscribe function.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StateUpdated):
		return event.Subscribe(b.dispatcher, h)
	case func(AvailabilityChanged):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
