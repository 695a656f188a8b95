//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealBoard is not available on non-Linux platforms.
type RealBoard struct{}

// NewRealBoard returns an error on non-Linux platforms.
func NewRealBoard(p Pins) (*RealBoard, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (b *RealBoard) Read() (Levels, error) {
	return Levels{}, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (b *RealBoard) Write(lit []bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (b *RealBoard) Close() error {
	return nil
}
