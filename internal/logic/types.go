// Package logic contains the blink-timing engine and ensemble animation state machine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or wall clock).
// Time is always injected as a Tick supplied by the caller.
package logic

import (
	"errors"
	"fmt"
	"strings"
)

// Tick is a monotonically nondecreasing time value in milliseconds.
// All durations and offsets share the same unit.
type Tick int64

// Protocol violations. These indicate a caller bug and are never coerced.
var (
	ErrEmptySequence       = errors.New("blink sequence is empty")
	ErrNonPositiveDuration = errors.New("blink duration must be positive")
	ErrNegativeOffset      = errors.New("phase offset must not be negative")
	ErrUnknownMode         = errors.New("unknown ensemble mode")
	ErrUnknownLightMode    = errors.New("unknown light mode")
	ErrNoLights            = errors.New("ensemble needs at least one light")
	ErrLightIndex          = errors.New("light index out of range")
)

// LightMode is the discrete mode of a single light.
type LightMode int

const (
	LightOff LightMode = iota
	LightOn
	LightBlinking
)

// String returns the short state name used in logs and status output.
func (m LightMode) String() string {
	switch m {
	case LightOff:
		return "off"
	case LightOn:
		return "on"
	case LightBlinking:
		return "blink"
	default:
		return "illegal-state"
	}
}

func (m LightMode) valid() bool {
	return m >= LightOff && m <= LightBlinking
}

// Mode is the ensemble animation selected by the mode button.
// Values form a closed cycle in declaration order.
type Mode int

const (
	ModeOff Mode = iota
	ModeConstantOn
	ModeSyncBlinkShort
	ModeSyncBlinkLong
	ModeUnsyncBlink
	ModeChase
	ModeChaseSlow
	ModeChaseInverse
	ModeCylonEye

	modeCount
)

var modeNames = [modeCount]string{
	ModeOff:            "OFF",
	ModeConstantOn:     "CONSTANT_ON",
	ModeSyncBlinkShort: "SYNC_BLINK_SHORT",
	ModeSyncBlinkLong:  "SYNC_BLINK_LONG",
	ModeUnsyncBlink:    "UNSYNC_BLINK",
	ModeChase:          "CHASE",
	ModeChaseSlow:      "CHASE_SLOW",
	ModeChaseInverse:   "CHASE_INVERSE",
	ModeCylonEye:       "CYLON_EYE",
}

// Modes returns every ensemble mode in selector order.
func Modes() []Mode {
	modes := make([]Mode, modeCount)
	for i := range modes {
		modes[i] = Mode(i)
	}
	return modes
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MODE(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && m < modeCount
}

// Next returns the mode that follows m in the selector cycle.
func (m Mode) Next() Mode {
	return (m + 1) % modeCount
}

// IsSweep reports whether the mode animates a pattern travelling across the array.
func (m Mode) IsSweep() bool {
	switch m {
	case ModeChase, ModeChaseSlow, ModeChaseInverse, ModeCylonEye:
		return true
	}
	return false
}

// ParseMode converts a mode name (case-insensitive, '-' or '_') into a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return ModeOff, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// EventType identifies an ensemble event.
type EventType string

const (
	EventModeChanged     EventType = "MODE_CHANGED"
	EventLightToggled    EventType = "LIGHT_TOGGLED"
	EventLightTransition EventType = "LIGHT_TRANSITION"
)

// Event is emitted by Ensemble.Process for consumers outside the core.
type Event struct {
	Tick Tick
	Type EventType
	Mode Mode
	// Light is the 1-based label of the light; 0 for mode events.
	Light int
	Lit   bool
	// Transitions is the number of blink transitions realized (LIGHT_TRANSITION only).
	Transitions int
}

// Activations holds the debounced press edges observed for one tick.
type Activations struct {
	Selector bool
	// Lights is indexed by light position; it may be shorter than the ensemble.
	Lights []bool
}

// LightState is a point-in-time view of one light.
type LightState struct {
	Label          int
	Output         int
	Mode           LightMode
	Lit            bool
	NextTransition Tick
	Sequence       []Tick
	Transitions    int
}

// EnsembleState is a point-in-time view of the whole ensemble.
// It is a value type and safe to hand to other goroutines.
type EnsembleState struct {
	Mode   Mode
	Status string
	Lights []LightState
}
