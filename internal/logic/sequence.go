package logic

import "fmt"

// BlinkSequence is a cyclic list of durations alternating the lit state.
// Entries start with a lit duration: [lit, unlit, lit, unlit, ...].
// A sequence is replaced wholesale, never edited in place.
type BlinkSequence struct {
	durations  []Tick
	index      int
	initialLit bool
}

// NewBlinkSequence validates and copies durations into a new sequence.
// The cursor is placed on the entry for the first state entered: index 0
// (a lit entry) when the light starts unlit, index 1 when it starts lit.
func NewBlinkSequence(initialLit bool, durations ...Tick) (BlinkSequence, error) {
	if len(durations) == 0 {
		return BlinkSequence{}, ErrEmptySequence
	}
	for i, d := range durations {
		if d <= 0 {
			return BlinkSequence{}, fmt.Errorf("%w: entry %d is %d", ErrNonPositiveDuration, i, d)
		}
	}

	s := BlinkSequence{
		durations:  append([]Tick(nil), durations...),
		initialLit: initialLit,
	}
	if initialLit && len(durations) > 1 {
		s.index = 1
	}
	return s, nil
}

// Len returns the number of entries.
func (s BlinkSequence) Len() int {
	return len(s.durations)
}

// Total returns the length of one full cycle.
func (s BlinkSequence) Total() Tick {
	var total Tick
	for _, d := range s.durations {
		total += d
	}
	return total
}

// Durations returns a copy of the entries.
func (s BlinkSequence) Durations() []Tick {
	return append([]Tick(nil), s.durations...)
}

// InitialLit reports the lit state the sequence starts from.
func (s BlinkSequence) InitialLit() bool {
	return s.initialLit
}

// next consumes the entry under the cursor and advances it cyclically.
func (s *BlinkSequence) next() Tick {
	d := s.durations[s.index]
	s.index = (s.index + 1) % len(s.durations)
	return d
}
