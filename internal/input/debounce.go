// Package input turns raw button levels into debounced press events.
// This package has NO hardware dependencies; time is injected via Sample.Time.
package input

import (
	"time"

	"github.com/sweeney/lightboard/internal/logic"
)

// State is the debounced level of one button.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// Sample is a single reading of every button level (true = pressed).
type Sample struct {
	Selector bool
	Buttons  []bool
	Time     time.Time
}

// channel tracks debounce state for a single button.
type channel struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Counts tracks debounced presses since startup.
type Counts struct {
	Selector int
	Buttons  []int
}

// Debouncer detects debounced press edges on the selector and button lines.
// A button held down at startup becomes the baseline and never fires.
type Debouncer struct {
	debounce  time.Duration
	selector  channel
	buttons   []channel
	baselined bool
	counts    Counts
}

// NewDebouncer creates a debouncer for the selector plus n light buttons.
func NewDebouncer(n int, debounce time.Duration) *Debouncer {
	return &Debouncer{
		debounce: debounce,
		buttons:  make([]channel, n),
		counts:   Counts{Buttons: make([]int, n)},
	}
}

// Process takes a new sample and returns the press edges it completes.
// Nothing is reported until every line has a baseline; releases are never reported.
// Missing entries in s.Buttons read as released.
func (d *Debouncer) Process(s Sample) logic.Activations {
	act := logic.Activations{Lights: make([]bool, len(d.buttons))}

	act.Selector = d.processChannel(&d.selector, toState(s.Selector), s.Time)
	for i := range d.buttons {
		pressed := i < len(s.Buttons) && s.Buttons[i]
		act.Lights[i] = d.processChannel(&d.buttons[i], toState(pressed), s.Time)
	}

	// No presses until baseline established
	if !d.baselined {
		d.baselined = d.allBaselined()
		return logic.Activations{Lights: make([]bool, len(d.buttons))}
	}

	if act.Selector {
		d.counts.Selector++
	}
	for i, pressed := range act.Lights {
		if pressed {
			d.counts.Buttons[i]++
		}
	}
	return act
}

func (d *Debouncer) allBaselined() bool {
	if !d.selector.Baselined {
		return false
	}
	for _, b := range d.buttons {
		if !b.Baselined {
			return false
		}
	}
	return true
}

// processChannel handles debounce logic for a single line.
// Returns true when a debounced RELEASED -> PRESSED transition completes.
func (d *Debouncer) processChannel(ch *channel, newState State, now time.Time) bool {
	if !ch.Baselined {
		if ch.Pending != newState {
			// First sample or level changed during baseline: restart
			ch.Pending = newState
			ch.PendingSince = now
			return false
		}
		if now.Sub(ch.PendingSince) >= d.debounce {
			ch.Stable = newState
			ch.Baselined = true
			ch.Pending = ""
		}
		return false
	}

	if newState == ch.Stable {
		ch.Pending = ""
		return false
	}

	if ch.Pending != newState {
		ch.Pending = newState
		ch.PendingSince = now
		// A zero debounce accepts the new level on first sight.
		if d.debounce > 0 {
			return false
		}
	}

	if now.Sub(ch.PendingSince) >= d.debounce {
		ch.Stable = newState
		ch.Pending = ""
		return newState == StatePressed
	}
	return false
}

func toState(pressed bool) State {
	if pressed {
		return StatePressed
	}
	return StateReleased
}

// IsBaselined returns whether every line has an established baseline.
func (d *Debouncer) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the stable states of the selector and the buttons.
func (d *Debouncer) CurrentState() (selector State, buttons []State) {
	buttons = make([]State, len(d.buttons))
	for i, b := range d.buttons {
		buttons[i] = b.Stable
	}
	return d.selector.Stable, buttons
}

// Counts returns a copy of the press counts.
func (d *Debouncer) Counts() Counts {
	return Counts{
		Selector: d.counts.Selector,
		Buttons:  append([]int(nil), d.counts.Buttons...),
	}
}
