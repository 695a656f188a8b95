// Package events carries ensemble events from the tick loop to slower
// consumers such as MQTT and metrics.
package events

import (
	"time"

	"github.com/sweeney/lightboard/internal/logic"
)

// Event type constants for kelindar/event.
const (
	TypeModeChanged uint32 = iota + 1
	TypeLightToggled
	TypeLightTransition
	TypeHeartbeat
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ModeChangedEvent is published when the ensemble switches mode.
type ModeChangedEvent struct {
	Tick      logic.Tick
	Mode      logic.Mode
	Status    string
	Timestamp time.Time
}

// Type returns the event type identifier for ModeChangedEvent.
func (e ModeChangedEvent) Type() uint32 { return TypeModeChanged }

// LightToggledEvent is published when a light button is pressed.
type LightToggledEvent struct {
	Tick      logic.Tick
	Mode      logic.Mode
	Light     int
	Lit       bool
	Status    string
	Timestamp time.Time
}

// Type returns the event type identifier for LightToggledEvent.
func (e LightToggledEvent) Type() uint32 { return TypeLightToggled }

// LightTransitionEvent is published when a blinking light changes state.
// Transitions is more than one when the loop fell behind and caught up.
type LightTransitionEvent struct {
	Tick        logic.Tick
	Mode        logic.Mode
	Light       int
	Lit         bool
	Transitions int
	Status      string
	Timestamp   time.Time
}

// Type returns the event type identifier for LightTransitionEvent.
func (e LightTransitionEvent) Type() uint32 { return TypeLightTransition }

// HeartbeatEvent carries a full snapshot at a fixed interval.
type HeartbeatEvent struct {
	State     logic.EnsembleState
	Timestamp time.Time
}

// Type returns the event type identifier for HeartbeatEvent.
func (e HeartbeatEvent) Type() uint32 { return TypeHeartbeat }

// FromLogic converts a core event into its bus form.
// Returns nil for unknown event types.
func FromLogic(ev logic.Event, status string, ts time.Time) Event {
	switch ev.Type {
	case logic.EventModeChanged:
		return ModeChangedEvent{Tick: ev.Tick, Mode: ev.Mode, Status: status, Timestamp: ts}
	case logic.EventLightToggled:
		return LightToggledEvent{Tick: ev.Tick, Mode: ev.Mode, Light: ev.Light, Lit: ev.Lit, Status: status, Timestamp: ts}
	case logic.EventLightTransition:
		return LightTransitionEvent{
			Tick:        ev.Tick,
			Mode:        ev.Mode,
			Light:       ev.Light,
			Lit:         ev.Lit,
			Transitions: ev.Transitions,
			Status:      status,
			Timestamp:   ts,
		}
	}
	return nil
}
