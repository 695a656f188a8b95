package logic

import "fmt"

// Default blink durations used when a light is put into blinking mode
// without an explicit sequence.
const (
	DefaultBlinkOn  Tick = 2000
	DefaultBlinkOff Tick = 250
)

// Light is a timed on/off sequencer driving one output.
type Light struct {
	output      int
	mode        LightMode
	lit         bool
	seq         BlinkSequence
	next        Tick
	transitions int
}

// NewLight creates a light on the given output. The phase offset delays the
// first blink transition relative to tick 0.
func NewLight(output int, mode LightMode, offset Tick) (*Light, error) {
	l := &Light{output: output}
	if err := l.SetMode(mode, 0, offset); err != nil {
		return nil, err
	}
	return l, nil
}

// SetMode sets the discrete mode. For LightBlinking the sequence is reset to
// the default on/off pair and the first transition is scheduled at start+offset.
// On and Off take effect on the lit state immediately.
func (l *Light) SetMode(mode LightMode, start, offset Tick) error {
	switch mode {
	case LightOff:
		l.lit = false
	case LightOn:
		l.lit = true
	case LightBlinking:
		if offset < 0 {
			return fmt.Errorf("light %d: %w: %d", l.output, ErrNegativeOffset, offset)
		}
		seq, err := NewBlinkSequence(l.lit, DefaultBlinkOn, DefaultBlinkOff)
		if err != nil {
			return fmt.Errorf("light %d: %w", l.output, err)
		}
		l.seq = seq
		l.next = start + offset
	default:
		return fmt.Errorf("light %d: %w: %d", l.output, ErrUnknownLightMode, int(mode))
	}
	l.mode = mode
	return nil
}

// SetBlinkSequence replaces the blink sequence wholesale and puts the light
// into blinking mode. The lit state is set to initialLit at once; the first
// transition happens at start+offset. Any in-flight position is discarded.
func (l *Light) SetBlinkSequence(start, offset Tick, durations []Tick, initialLit bool) error {
	if offset < 0 {
		return fmt.Errorf("light %d: %w: %d", l.output, ErrNegativeOffset, offset)
	}
	seq, err := NewBlinkSequence(initialLit, durations...)
	if err != nil {
		return fmt.Errorf("light %d: %w", l.output, err)
	}

	l.seq = seq
	l.mode = LightBlinking
	l.lit = initialLit
	l.next = start + offset
	return nil
}

// Toggle flips between On and Off. A blinking light always goes to Off.
func (l *Light) Toggle() {
	if l.mode == LightOff {
		l.mode = LightOn
		l.lit = true
		return
	}
	l.mode = LightOff
	l.lit = false
}

// Advance moves the light forward to now and returns the number of blink
// transitions realized. Each transition schedules the next one relative to
// the previous scheduled tick rather than now, so irregular polling never
// accumulates drift. Calling Advance again with the same now is a no-op.
func (l *Light) Advance(now Tick) (int, error) {
	switch l.mode {
	case LightOff:
		l.lit = false
		return 0, nil
	case LightOn:
		l.lit = true
		return 0, nil
	case LightBlinking:
	default:
		return 0, fmt.Errorf("light %d: %w: %d", l.output, ErrUnknownLightMode, int(l.mode))
	}

	if l.seq.Len() == 0 {
		return 0, fmt.Errorf("light %d: blinking with %w", l.output, ErrEmptySequence)
	}
	if now < l.next {
		return 0, nil
	}

	n := 0

	// Far behind: skip whole cycles. The cursor returns to where it was;
	// an odd-length cycle leaves the lit state flipped.
	if total := l.seq.Total(); now-l.next >= total {
		cycles := (now - l.next) / total
		l.next += cycles * total
		n += int(cycles) * l.seq.Len()
		if l.seq.Len()%2 == 1 && cycles%2 == 1 {
			l.lit = !l.lit
		}
	}

	for now >= l.next {
		l.lit = !l.lit
		l.next += l.seq.next()
		n++
	}

	l.transitions += n
	return n, nil
}

// IsLit reports the current lit state.
func (l *Light) IsLit() bool {
	return l.lit
}

// Mode returns the discrete mode.
func (l *Light) Mode() LightMode {
	return l.mode
}

// Output returns the output identifier the light drives.
func (l *Light) Output() int {
	return l.output
}

// NextTransition returns the tick of the next scheduled blink transition.
// Only meaningful in blinking mode.
func (l *Light) NextTransition() Tick {
	return l.next
}

// Sequence returns a copy of the current blink sequence.
func (l *Light) Sequence() BlinkSequence {
	s := l.seq
	s.durations = s.Durations()
	return s
}

// Transitions returns the number of blink transitions realized since creation.
func (l *Light) Transitions() int {
	return l.transitions
}
