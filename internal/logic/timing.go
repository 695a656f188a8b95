package logic

import (
	"errors"
	"fmt"
)

// Timing holds the parameters every ensemble mode derives its per-light
// durations and offsets from. All values are in ticks, except frame counts.
type Timing struct {
	SyncShortOn  Tick
	SyncShortOff Tick
	SyncLongOn   Tick
	SyncLongOff  Tick

	UnsyncOn    Tick
	UnsyncOff   Tick
	UnsyncDelay Tick // per-light stagger

	// FrameDuration is the length of one animation frame in the sweep modes.
	FrameDuration Tick
	// Frame counts are the number of frames each light owns in one pass.
	ChaseFrames        int
	ChaseSlowFrames    int
	ChaseInverseFrames int
	CylonFrames        int
}

// DefaultTiming returns the factory animation timing.
func DefaultTiming() Timing {
	return Timing{
		SyncShortOn:        500,
		SyncShortOff:       1000,
		SyncLongOn:         1500,
		SyncLongOff:        500,
		UnsyncOn:           500,
		UnsyncOff:          1000,
		UnsyncDelay:        250,
		FrameDuration:      500,
		ChaseFrames:        2,
		ChaseSlowFrames:    3,
		ChaseInverseFrames: 4,
		CylonFrames:        2,
	}
}

// Validate reports every non-positive duration or frame count.
func (t Timing) Validate() error {
	var errs []error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("timing %s must be positive, got %d", name, v))
		}
	}
	positive("sync_short_on", int64(t.SyncShortOn))
	positive("sync_short_off", int64(t.SyncShortOff))
	positive("sync_long_on", int64(t.SyncLongOn))
	positive("sync_long_off", int64(t.SyncLongOff))
	positive("unsync_on", int64(t.UnsyncOn))
	positive("unsync_off", int64(t.UnsyncOff))
	positive("frame", int64(t.FrameDuration))
	positive("chase_frames", int64(t.ChaseFrames))
	positive("chase_slow_frames", int64(t.ChaseSlowFrames))
	positive("chase_inverse_frames", int64(t.ChaseInverseFrames))
	positive("cylon_frames", int64(t.CylonFrames))
	if t.UnsyncDelay < 0 {
		errs = append(errs, fmt.Errorf("timing unsync_delay must not be negative, got %d", t.UnsyncDelay))
	}
	return errors.Join(errs...)
}

// LightPlan is the derived configuration for one light in one ensemble mode.
type LightPlan struct {
	Mode       LightMode
	Offset     Tick
	Durations  []Tick
	InitialLit bool
}

// Total returns the cycle length of a blinking plan, 0 for static plans.
func (p LightPlan) Total() Tick {
	var total Tick
	for _, d := range p.Durations {
		total += d
	}
	return total
}

// Plan derives the per-light plans for mode over n lights. It is a pure
// function of its arguments. Sweep modes over a single light, or any
// derivation yielding a non-positive duration, fall back to all lights on.
func Plan(mode Mode, n int, t Timing) ([]LightPlan, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
	}
	if n <= 0 {
		return nil, ErrNoLights
	}

	if mode.IsSweep() && n <= 1 {
		return staticPlans(n, LightOn), nil
	}

	plans := make([]LightPlan, n)
	for i := range plans {
		plans[i] = planLight(mode, i, n, t)
		for _, d := range plans[i].Durations {
			if d <= 0 {
				return staticPlans(n, LightOn), nil
			}
		}
	}
	return plans, nil
}

// IsDegenerate reports whether Plan normalizes mode over n lights to all-on.
func IsDegenerate(mode Mode, n int, t Timing) bool {
	if mode == ModeConstantOn || !mode.Valid() || n <= 0 {
		return false
	}
	plans, err := Plan(mode, n, t)
	if err != nil {
		return false
	}
	return plans[0].Mode == LightOn
}

func staticPlans(n int, mode LightMode) []LightPlan {
	plans := make([]LightPlan, n)
	for i := range plans {
		plans[i] = LightPlan{Mode: mode, InitialLit: mode == LightOn}
	}
	return plans
}

func blinkPlan(offset Tick, initialLit bool, durations ...Tick) LightPlan {
	return LightPlan{
		Mode:       LightBlinking,
		Offset:     offset,
		Durations:  durations,
		InitialLit: initialLit,
	}
}

func planLight(mode Mode, i, n int, t Timing) LightPlan {
	idx := Tick(i)
	count := Tick(n)
	frame := t.FrameDuration

	switch mode {
	case ModeOff:
		return LightPlan{Mode: LightOff}

	case ModeConstantOn:
		return LightPlan{Mode: LightOn, InitialLit: true}

	case ModeSyncBlinkShort:
		return blinkPlan(0, false, t.SyncShortOn, t.SyncShortOff)

	case ModeSyncBlinkLong:
		return blinkPlan(0, false, t.SyncLongOn, t.SyncLongOff)

	case ModeUnsyncBlink:
		return blinkPlan(idx*t.UnsyncDelay, false, t.UnsyncOn, t.UnsyncOff)

	case ModeChase, ModeChaseSlow:
		// Lit for one frame, then dark through every other light's frames.
		fc := Tick(t.ChaseFrames)
		if mode == ModeChaseSlow {
			fc = Tick(t.ChaseSlowFrames)
		}
		return blinkPlan(idx*fc*frame, false, frame, (count*fc-1)*frame)

	case ModeChaseInverse:
		// A dark spot travelling over a lit array.
		fc := Tick(t.ChaseInverseFrames)
		return blinkPlan(idx*fc*frame, true, (count*fc-1)*frame, frame)

	case ModeCylonEye:
		return cylonPlan(idx, count, Tick(t.CylonFrames), frame)
	}

	// Unreachable: Plan checks mode.Valid.
	return LightPlan{Mode: LightOff}
}

// cylonPlan derives the back-and-forth sweep. One cycle is 2(n-1) light slots
// of fc frames. Light i is hit going out at slot i and coming back at slot
// 2(n-1)-i, so interior lights pulse twice per cycle and the end lights once.
func cylonPlan(i, n, fc, frame Tick) LightPlan {
	cycle := 2 * (n - 1) * fc
	offset := i * fc * frame

	if i == 0 || i == n-1 {
		return blinkPlan(offset, false, frame, (cycle-1)*frame)
	}

	toEnd := n - 1 - i
	gapOut := 2*toEnd*fc - 1
	gapBack := 2*i*fc - 1
	return blinkPlan(offset, false, frame, gapOut*frame, frame, gapBack*frame)
}
