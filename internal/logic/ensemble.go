package logic

import (
	"errors"
	"fmt"
	"strings"
)

// Glyphs used by Status for one light.
const (
	GlyphLit   = '*'
	GlyphUnlit = 'o'
)

// Ensemble owns a fixed set of button-lights plus a mode selector and keeps
// every light in step with the selected animation mode.
//
// Not safe for concurrent use: one goroutine drives it through Process.
type Ensemble struct {
	lights []*ButtonLight
	mode   Mode
	timing Timing
	plans  []LightPlan

	// Filled by button-light callbacks and mode changes, drained by Process.
	pending []Event
	errs    []error
}

// NewEnsemble creates an ensemble with one button-light per output, labelled
// 1..N in order. The ensemble starts in ModeOff with every light off.
func NewEnsemble(outputs []int, timing Timing) (*Ensemble, error) {
	if len(outputs) == 0 {
		return nil, ErrNoLights
	}
	if err := timing.Validate(); err != nil {
		return nil, fmt.Errorf("ensemble timing: %w", err)
	}

	e := &Ensemble{
		mode:   ModeOff,
		timing: timing,
		lights: make([]*ButtonLight, len(outputs)),
	}
	for i, out := range outputs {
		light, err := NewLight(out, LightOff, 0)
		if err != nil {
			return nil, err
		}
		e.lights[i] = NewButtonLight(i+1, i, light, e.onLightChanged)
	}

	plans, err := Plan(e.mode, len(e.lights), e.timing)
	if err != nil {
		return nil, err
	}
	e.plans = plans
	return e, nil
}

// Process runs one tick: the selector press first, then individual presses in
// light order, then every light advances to now. Mode changes are therefore
// pushed into every light before any light advances on the same tick.
//
// It returns the events produced since the previous call. Errors from single
// lights are joined; they never stop the remaining lights from advancing.
func (e *Ensemble) Process(now Tick, act Activations) ([]Event, error) {
	var errs []error

	if act.Selector {
		if err := e.OnSelectorActivate(now); err != nil {
			errs = append(errs, err)
		}
	}

	for i, pressed := range act.Lights {
		if !pressed {
			continue
		}
		if i >= len(e.lights) {
			errs = append(errs, fmt.Errorf("%w: %d", ErrLightIndex, i))
			continue
		}
		e.lights[i].OnActivate(now)
	}

	for _, bl := range e.lights {
		n, err := bl.Advance(now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if n > 0 {
			e.pending = append(e.pending, Event{
				Tick:        now,
				Type:        EventLightTransition,
				Mode:        e.mode,
				Light:       bl.Label(),
				Lit:         bl.IsLit(),
				Transitions: n,
			})
		}
	}

	errs = append(errs, e.errs...)
	e.errs = nil
	events := e.pending
	e.pending = nil
	return events, errors.Join(errs...)
}

// OnSelectorActivate advances to the next mode in the cycle and applies it.
func (e *Ensemble) OnSelectorActivate(now Tick) error {
	return e.changeMode(e.mode.Next(), now)
}

// OnIndividualActivate reacts to a light toggled by its own button. Manual
// control wins: any running animation is cancelled by switching to ModeOff.
// In ModeOff the individual toggle stands.
func (e *Ensemble) OnIndividualActivate(index int, now Tick) error {
	if index < 0 || index >= len(e.lights) {
		return fmt.Errorf("%w: %d", ErrLightIndex, index)
	}
	if e.mode == ModeOff {
		return nil
	}
	return e.changeMode(ModeOff, now)
}

// ActivateLight simulates a press of the button at index.
func (e *Ensemble) ActivateLight(index int, now Tick) error {
	if index < 0 || index >= len(e.lights) {
		return fmt.Errorf("%w: %d", ErrLightIndex, index)
	}
	e.lights[index].OnActivate(now)
	err := errors.Join(e.errs...)
	e.errs = nil
	return err
}

// SetMode selects mode directly and applies it. Selecting the current mode
// restarts its animation phase from now.
func (e *Ensemble) SetMode(mode Mode, now Tick) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	return e.changeMode(mode, now)
}

// SetTiming replaces the timing parameters and re-applies the current mode.
func (e *Ensemble) SetTiming(t Timing, now Tick) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("ensemble timing: %w", err)
	}
	e.timing = t
	return e.ApplyMode(now)
}

func (e *Ensemble) changeMode(mode Mode, now Tick) error {
	if mode != e.mode {
		e.mode = mode
		e.pending = append(e.pending, Event{Tick: now, Type: EventModeChanged, Mode: mode})
	}
	return e.ApplyMode(now)
}

// ApplyMode derives the plan for the current mode and pushes it into every
// light, restarting all phases from now.
func (e *Ensemble) ApplyMode(now Tick) error {
	plans, err := Plan(e.mode, len(e.lights), e.timing)
	if err != nil {
		return fmt.Errorf("apply %s: %w", e.mode, err)
	}

	var errs []error
	for i, bl := range e.lights {
		p := plans[i]
		if p.Mode == LightBlinking {
			err = bl.Light().SetBlinkSequence(now, p.Offset, p.Durations, p.InitialLit)
		} else {
			err = bl.Light().SetMode(p.Mode, now, 0)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	e.plans = plans
	return errors.Join(errs...)
}

func (e *Ensemble) onLightChanged(bl *ButtonLight, now Tick) {
	e.pending = append(e.pending, Event{
		Tick:  now,
		Type:  EventLightToggled,
		Mode:  e.mode,
		Light: bl.Label(),
		Lit:   bl.IsLit(),
	})
	if err := e.OnIndividualActivate(bl.Index(), now); err != nil {
		e.errs = append(e.errs, err)
	}
}

// Mode returns the selected ensemble mode.
func (e *Ensemble) Mode() Mode {
	return e.mode
}

// Timing returns the active timing parameters.
func (e *Ensemble) Timing() Timing {
	return e.timing
}

// Len returns the number of lights.
func (e *Ensemble) Len() int {
	return len(e.lights)
}

// Light returns the button-light at index.
func (e *Ensemble) Light(index int) *ButtonLight {
	return e.lights[index]
}

// Lit returns the lit state of every light in index order.
func (e *Ensemble) Lit() []bool {
	lit := make([]bool, len(e.lights))
	for i, bl := range e.lights {
		lit[i] = bl.IsLit()
	}
	return lit
}

// Plans returns a copy of the plans last pushed into the lights.
func (e *Ensemble) Plans() []LightPlan {
	plans := make([]LightPlan, len(e.plans))
	for i, p := range e.plans {
		p.Durations = append([]Tick(nil), p.Durations...)
		plans[i] = p
	}
	return plans
}

// Status returns the mode followed by one glyph per light, e.g. "[CHASE] [o*o]".
func (e *Ensemble) Status() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(e.mode.String())
	b.WriteString("] [")
	for _, bl := range e.lights {
		if bl.IsLit() {
			b.WriteRune(GlyphLit)
		} else {
			b.WriteRune(GlyphUnlit)
		}
	}
	b.WriteString("]")
	return b.String()
}

// Snapshot returns a copy of the ensemble state.
func (e *Ensemble) Snapshot() EnsembleState {
	state := EnsembleState{
		Mode:   e.mode,
		Status: e.Status(),
		Lights: make([]LightState, len(e.lights)),
	}
	for i, bl := range e.lights {
		l := bl.Light()
		state.Lights[i] = LightState{
			Label:          bl.Label(),
			Output:         l.Output(),
			Mode:           l.Mode(),
			Lit:            l.IsLit(),
			NextTransition: l.NextTransition(),
			Sequence:       l.Sequence().Durations(),
			Transitions:    l.Transitions(),
		}
	}
	return state
}
