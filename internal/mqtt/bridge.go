package mqtt

import (
	"log"

	"github.com/sweeney/lightboard/internal/events"
)

// Attach subscribes p to the ensemble events on bus. Blink transitions are
// frequent in the sweep modes and are only forwarded when transitions is set.
// The returned function unsubscribes.
func Attach(bus *events.Bus, p Publisher, transitions bool) func() {
	publish := func(ev events.Event) {
		if err := p.Publish(ev); err != nil {
			log.Printf("mqtt: publish failed: %v", err)
		}
	}

	unsubs := []func(){
		bus.Subscribe(func(e events.ModeChangedEvent) { publish(e) }),
		bus.Subscribe(func(e events.LightToggledEvent) { publish(e) }),
	}
	if transitions {
		unsubs = append(unsubs, bus.Subscribe(func(e events.LightTransitionEvent) { publish(e) }))
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
