package events

import (
	"time"

	"github.com/kelindar/event"

	"github.com/sweeney/lightboard/internal/logic"
)

// Bus wraps kelindar/event dispatcher for event broadcasting.
// Each subscriber is served from its own queue, so Publish does not wait
// for slow handlers.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers.
// Usage: bus.Publish(ModeChangedEvent{...})
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ModeChangedEvent:
		event.Publish(b.dispatcher, e)
	case LightToggledEvent:
		event.Publish(b.dispatcher, e)
	case LightTransitionEvent:
		event.Publish(b.dispatcher, e)
	case HeartbeatEvent:
		event.Publish(b.dispatcher, e)
	}
}

// PublishAll converts and publishes the events returned by one tick.
func (b *Bus) PublishAll(evs []logic.Event, status string, ts time.Time) {
	for _, ev := range evs {
		if e := FromLogic(ev, status, ts); e != nil {
			b.Publish(e)
		}
	}
}

// Subscribe subscribes to events with a handler function.
// The handler type determines which events it receives.
// Returns an unsubscribe function; unknown handler types get a no-op.
// Usage: unsub := bus.Subscribe(func(e ModeChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ModeChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LightToggledEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(LightTransitionEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(HeartbeatEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}
