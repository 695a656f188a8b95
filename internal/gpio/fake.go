package gpio

import "errors"

// FakeBoard is a test double that returns scripted levels and records LED frames.
type FakeBoard struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples []Levels

	// Frames records every Write, copied.
	Frames [][]bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError and WriteError, if set, are returned by Read() and Write()
	ReadError  error
	WriteError error
}

// NewFakeBoard creates a FakeBoard with the given samples.
func NewFakeBoard(samples []Levels) *FakeBoard {
	return &FakeBoard{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeBoard) Read() (Levels, error) {
	if f.ReadError != nil {
		return Levels{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return Levels{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return Levels{Selector: s.Selector, Buttons: append([]bool(nil), s.Buttons...)}, nil
}

// Write records a copy of lit.
func (f *FakeBoard) Write(lit []bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Frames = append(f.Frames, append([]bool(nil), lit...))
	return nil
}

// LastFrame returns the most recent frame written, or nil.
func (f *FakeBoard) LastFrame() []bool {
	if len(f.Frames) == 0 {
		return nil
	}
	return f.Frames[len(f.Frames)-1]
}

// Close marks the board as closed and records an all-off frame.
func (f *FakeBoard) Close() error {
	if n := len(f.LastFrame()); n > 0 {
		f.Frames = append(f.Frames, make([]bool, n))
	}
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample and forgets recorded frames.
func (f *FakeBoard) Reset() {
	f.index = 0
	f.Frames = nil
	f.Closed = false
}
