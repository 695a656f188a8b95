package logic

import (
	"errors"
	"reflect"
	"testing"
)

func newBlinkingLight(t *testing.T, start, offset Tick, initialLit bool, durations ...Tick) *Light {
	t.Helper()
	l, err := NewLight(7, LightOff, 0)
	if err != nil {
		t.Fatalf("NewLight: %v", err)
	}
	if err := l.SetBlinkSequence(start, offset, durations, initialLit); err != nil {
		t.Fatalf("SetBlinkSequence: %v", err)
	}
	return l
}

func TestNewBlinkSequence(t *testing.T) {
	s, err := NewBlinkSequence(false, 100, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len: got %d, want 2", s.Len())
	}
	if s.Total() != 300 {
		t.Errorf("Total: got %d, want 300", s.Total())
	}
	if s.InitialLit() {
		t.Error("expected InitialLit=false")
	}
	if s.index != 0 {
		t.Errorf("unlit start: cursor got %d, want 0", s.index)
	}

	lit, err := NewBlinkSequence(true, 100, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lit.index != 1 {
		t.Errorf("lit start: cursor got %d, want 1", lit.index)
	}

	single, err := NewBlinkSequence(true, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if single.index != 0 {
		t.Errorf("single entry: cursor got %d, want 0", single.index)
	}
}

func TestNewBlinkSequenceCopiesInput(t *testing.T) {
	in := []Tick{100, 200}
	s, err := NewBlinkSequence(false, in...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in[0] = 999
	if got := s.Durations(); got[0] != 100 {
		t.Errorf("sequence aliased caller slice: %v", got)
	}

	out := s.Durations()
	out[1] = 999
	if s.Durations()[1] != 200 {
		t.Error("Durations must return a copy")
	}
}

func TestNewBlinkSequenceErrors(t *testing.T) {
	tests := []struct {
		name      string
		durations []Tick
		want      error
	}{
		{"empty", nil, ErrEmptySequence},
		{"zero", []Tick{100, 0}, ErrNonPositiveDuration},
		{"negative", []Tick{-5}, ErrNonPositiveDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlinkSequence(false, tt.durations...)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBlinkSequenceWraps(t *testing.T) {
	s, _ := NewBlinkSequence(false, 1, 2, 3)
	var got []Tick
	for i := 0; i < 7; i++ {
		got = append(got, s.next())
	}
	want := []Tick{1, 2, 3, 1, 2, 3, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLightStaticModes(t *testing.T) {
	l, err := NewLight(3, LightOn, 0)
	if err != nil {
		t.Fatalf("NewLight: %v", err)
	}
	if !l.IsLit() {
		t.Error("On light should be lit at once")
	}
	if l.Output() != 3 {
		t.Errorf("Output: got %d, want 3", l.Output())
	}

	for _, now := range []Tick{0, 10, 10, 5000} {
		n, err := l.Advance(now)
		if err != nil {
			t.Fatalf("Advance(%d): %v", now, err)
		}
		if n != 0 {
			t.Errorf("Advance(%d): static light reported %d transitions", now, n)
		}
		if !l.IsLit() {
			t.Errorf("Advance(%d): On light not lit", now)
		}
	}

	if err := l.SetMode(LightOff, 100, 0); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if l.IsLit() {
		t.Error("Off light should be unlit at once")
	}
	l.Advance(200)
	if l.IsLit() {
		t.Error("Off light lit after Advance")
	}
}

func TestLightSetModeUnknown(t *testing.T) {
	l, _ := NewLight(1, LightOff, 0)
	err := l.SetMode(LightMode(9), 0, 0)
	if !errors.Is(err, ErrUnknownLightMode) {
		t.Errorf("got %v, want ErrUnknownLightMode", err)
	}
	if l.Mode() != LightOff {
		t.Errorf("mode changed on error: %s", l.Mode())
	}
}

func TestLightSetModeBlinkingUsesDefaults(t *testing.T) {
	l, _ := NewLight(1, LightOff, 0)
	if err := l.SetMode(LightBlinking, 1000, 100); err != nil {
		t.Fatalf("SetMode: %v", err)
	}
	if l.NextTransition() != 1100 {
		t.Errorf("NextTransition: got %d, want 1100", l.NextTransition())
	}
	if got := l.Sequence().Durations(); !reflect.DeepEqual(got, []Tick{DefaultBlinkOn, DefaultBlinkOff}) {
		t.Errorf("sequence: got %v", got)
	}

	l.Advance(1099)
	if l.IsLit() {
		t.Error("lit before offset elapsed")
	}
	l.Advance(1100)
	if !l.IsLit() {
		t.Error("expected lit at first transition")
	}
	l.Advance(1100 + DefaultBlinkOn)
	if l.IsLit() {
		t.Error("expected unlit after on duration")
	}
	l.Advance(1100 + DefaultBlinkOn + DefaultBlinkOff)
	if !l.IsLit() {
		t.Error("expected lit after off duration")
	}
}

func TestNewLightWithOffset(t *testing.T) {
	l, err := NewLight(1, LightBlinking, 400)
	if err != nil {
		t.Fatalf("NewLight: %v", err)
	}
	if l.NextTransition() != 400 {
		t.Errorf("NextTransition: got %d, want 400", l.NextTransition())
	}
}

func TestLightNegativeOffset(t *testing.T) {
	l, _ := NewLight(1, LightOff, 0)
	if err := l.SetBlinkSequence(0, -1, []Tick{10, 10}, false); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("SetBlinkSequence: got %v, want ErrNegativeOffset", err)
	}
	if err := l.SetMode(LightBlinking, 0, -1); !errors.Is(err, ErrNegativeOffset) {
		t.Errorf("SetMode: got %v, want ErrNegativeOffset", err)
	}
	if l.Mode() != LightOff {
		t.Errorf("mode changed on error: %s", l.Mode())
	}
}

func TestLightSetBlinkSequenceRejectsBadDurations(t *testing.T) {
	l := newBlinkingLight(t, 0, 0, false, 100, 100)
	before := l.Sequence().Durations()

	if err := l.SetBlinkSequence(0, 0, nil, false); !errors.Is(err, ErrEmptySequence) {
		t.Errorf("got %v, want ErrEmptySequence", err)
	}
	if err := l.SetBlinkSequence(0, 0, []Tick{100, 0}, false); !errors.Is(err, ErrNonPositiveDuration) {
		t.Errorf("got %v, want ErrNonPositiveDuration", err)
	}
	if got := l.Sequence().Durations(); !reflect.DeepEqual(got, before) {
		t.Errorf("sequence replaced on error: %v", got)
	}
}

func TestLightSetBlinkSequenceSetsLitImmediately(t *testing.T) {
	l := newBlinkingLight(t, 1000, 500, true, 100, 100)
	if !l.IsLit() {
		t.Error("expected initial lit state applied immediately")
	}
	if l.Mode() != LightBlinking {
		t.Errorf("Mode: got %s, want blink", l.Mode())
	}
	l.Advance(1200)
	if !l.IsLit() {
		t.Error("expected lit until the offset elapses")
	}
}

func TestLightBlinkingWithEmptySequenceFails(t *testing.T) {
	l := &Light{output: 4, mode: LightBlinking}
	_, err := l.Advance(100)
	if !errors.Is(err, ErrEmptySequence) {
		t.Errorf("got %v, want ErrEmptySequence", err)
	}
}

func TestLightUnknownModeFails(t *testing.T) {
	l := &Light{output: 4, mode: LightMode(42)}
	_, err := l.Advance(100)
	if !errors.Is(err, ErrUnknownLightMode) {
		t.Errorf("got %v, want ErrUnknownLightMode", err)
	}
}

// TestLightTransitionTimes checks transitions land at T, T+a, T+a+b, T+2a+b, ...
// no matter how many extra calls happen in between.
func TestLightTransitionTimes(t *testing.T) {
	const start Tick = 1000
	l := newBlinkingLight(t, start, 0, false, 300, 700)

	var changes []Tick
	prev := l.IsLit()
	for now := start - 50; now <= start+3000; now++ {
		// Extra no-op calls between real transitions
		for i := 0; i < 3; i++ {
			if _, err := l.Advance(now); err != nil {
				t.Fatalf("Advance(%d): %v", now, err)
			}
		}
		if l.IsLit() != prev {
			changes = append(changes, now)
			prev = l.IsLit()
		}
	}

	want := []Tick{1000, 1300, 2000, 2300, 3000, 3300, 4000}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("transitions: got %v, want %v", changes, want)
	}
}

// TestLightNoDriftUnderIrregularPolling polls at uneven, late intervals and
// checks the lit state always matches the ideal schedule.
func TestLightNoDriftUnderIrregularPolling(t *testing.T) {
	const start Tick = 500
	const on, off Tick = 120, 380
	l := newBlinkingLight(t, start, 0, false, on, off)

	litAt := func(now Tick) bool {
		phase := (now - start) % (on + off)
		return phase < on
	}

	steps := []Tick{7, 13, 1, 97, 250, 3, 499, 501, 61, 1000, 17}
	now := start
	for i := 0; i < 500; i++ {
		if _, err := l.Advance(now); err != nil {
			t.Fatalf("Advance(%d): %v", now, err)
		}
		if l.IsLit() != litAt(now) {
			t.Fatalf("t=%d: lit=%v, want %v", now, l.IsLit(), litAt(now))
		}
		if next := l.NextTransition(); next <= now {
			t.Fatalf("t=%d: next transition %d not in the future", now, next)
		}
		if (l.NextTransition()-start)%(on+off) != 0 && (l.NextTransition()-start)%(on+off) != on {
			t.Fatalf("t=%d: next transition %d off the schedule", now, l.NextTransition())
		}
		now += steps[i%len(steps)]
	}
}

func TestLightAdvanceIdempotent(t *testing.T) {
	l := newBlinkingLight(t, 0, 0, false, 100, 100)

	n, _ := l.Advance(0)
	if n != 1 {
		t.Fatalf("first Advance: got %d transitions, want 1", n)
	}
	lit := l.IsLit()
	next := l.NextTransition()

	n, _ = l.Advance(0)
	if n != 0 {
		t.Errorf("second Advance: got %d transitions, want 0", n)
	}
	if l.IsLit() != lit || l.NextTransition() != next {
		t.Error("second Advance with same tick changed state")
	}
}

func TestLightCatchUpAfterLongGap(t *testing.T) {
	l := newBlinkingLight(t, 0, 0, false, 100, 200)

	n, err := l.Advance(10_000_050)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if n != 66668 {
		t.Errorf("transitions: got %d, want 66668", n)
	}
	if l.IsLit() {
		t.Error("expected unlit 150 ticks into a cycle")
	}
	if l.NextTransition() != 10_000_200 {
		t.Errorf("NextTransition: got %d, want 10000200", l.NextTransition())
	}
	if l.Transitions() != 66668 {
		t.Errorf("Transitions: got %d, want 66668", l.Transitions())
	}
}

func TestLightCatchUpOddSequence(t *testing.T) {
	tests := []struct {
		now     Tick
		wantLit bool
		wantN   int
	}{
		{1050, true, 11},
		{1150, false, 12},
	}
	for _, tt := range tests {
		l := newBlinkingLight(t, 0, 0, false, 100)
		n, err := l.Advance(tt.now)
		if err != nil {
			t.Fatalf("Advance(%d): %v", tt.now, err)
		}
		if n != tt.wantN {
			t.Errorf("Advance(%d): got %d transitions, want %d", tt.now, n, tt.wantN)
		}
		if l.IsLit() != tt.wantLit {
			t.Errorf("Advance(%d): lit=%v, want %v", tt.now, l.IsLit(), tt.wantLit)
		}
	}
}

func TestLightReplaceSequenceRestartsPhase(t *testing.T) {
	l := newBlinkingLight(t, 0, 0, false, 100, 100, 50, 50)
	l.Advance(120)

	if err := l.SetBlinkSequence(130, 20, []Tick{10, 10}, false); err != nil {
		t.Fatalf("SetBlinkSequence: %v", err)
	}
	if l.IsLit() {
		t.Error("expected initial unlit state after replacement")
	}
	if l.NextTransition() != 150 {
		t.Errorf("NextTransition: got %d, want 150", l.NextTransition())
	}
	l.Advance(150)
	if !l.IsLit() {
		t.Error("expected lit at restarted phase")
	}
	l.Advance(160)
	if l.IsLit() {
		t.Error("expected unlit after first entry of new sequence")
	}
}

func TestLightToggle(t *testing.T) {
	l, _ := NewLight(1, LightOff, 0)

	l.Toggle()
	if l.Mode() != LightOn || !l.IsLit() {
		t.Errorf("Off -> toggle: got %s lit=%v", l.Mode(), l.IsLit())
	}
	l.Toggle()
	if l.Mode() != LightOff || l.IsLit() {
		t.Errorf("On -> toggle: got %s lit=%v", l.Mode(), l.IsLit())
	}

	l.SetBlinkSequence(0, 0, []Tick{10, 10}, true)
	l.Toggle()
	if l.Mode() != LightOff || l.IsLit() {
		t.Errorf("Blinking -> toggle: got %s lit=%v", l.Mode(), l.IsLit())
	}
}

func TestLightModeString(t *testing.T) {
	tests := []struct {
		mode LightMode
		want string
	}{
		{LightOff, "off"},
		{LightOn, "on"},
		{LightBlinking, "blink"},
		{LightMode(7), "illegal-state"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("LightMode(%d).String() = %q, want %q", int(tt.mode), got, tt.want)
		}
	}
}

func TestButtonLightActivate(t *testing.T) {
	l, _ := NewLight(5, LightOff, 0)

	var calls []Tick
	var got *ButtonLight
	bl := NewButtonLight(2, 1, l, func(b *ButtonLight, now Tick) {
		got = b
		calls = append(calls, now)
	})

	bl.OnActivate(100)
	if !bl.IsLit() {
		t.Error("expected lit after first press")
	}
	bl.OnActivate(200)
	if bl.IsLit() {
		t.Error("expected unlit after second press")
	}

	if !reflect.DeepEqual(calls, []Tick{100, 200}) {
		t.Errorf("callback ticks: got %v", calls)
	}
	if got != bl {
		t.Error("callback did not receive the button-light")
	}
	if bl.Label() != 2 || bl.Index() != 1 {
		t.Errorf("Label/Index: got %d/%d", bl.Label(), bl.Index())
	}
}

func TestButtonLightActivateWhileBlinking(t *testing.T) {
	l, _ := NewLight(5, LightOff, 0)
	l.SetBlinkSequence(0, 0, []Tick{10, 10}, true)
	bl := NewButtonLight(1, 0, l, nil)

	bl.OnActivate(5)
	if l.Mode() != LightOff {
		t.Errorf("press while blinking: got %s, want off", l.Mode())
	}
	bl.Advance(100)
	if bl.IsLit() {
		t.Error("light lit after manual override")
	}
}
