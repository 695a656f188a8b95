// Package gpio provides button and LED access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// Levels is one reading of every input line in logical form (true = pressed).
type Levels struct {
	Selector bool
	Buttons  []bool
}

// Board reads the selector and light buttons and drives the LEDs.
type Board interface {
	// Read returns the logical button levels.
	// Buttons are wired active low: raw 0 = pressed.
	Read() (Levels, error)

	// Write sets every LED; lit[i] drives light i.
	Write(lit []bool) error

	// Close turns the LEDs off and releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultChip        = "gpiochip0"
	DefaultPinSelector = 4
)

var (
	DefaultPinButtons = []int{5, 6, 13}
	DefaultPinLights  = []int{17, 27, 22}
)

// Pins maps the board lines to BCM offsets on a chip.
type Pins struct {
	Chip     string
	Selector int
	Buttons  []int
	Lights   []int
}

// DefaultPins returns the three-light wiring.
func DefaultPins() Pins {
	return Pins{
		Chip:     DefaultChip,
		Selector: DefaultPinSelector,
		Buttons:  append([]int(nil), DefaultPinButtons...),
		Lights:   append([]int(nil), DefaultPinLights...),
	}
}

// PinRange returns count consecutive offsets starting at start.
func PinRange(start, count int) []int {
	pins := make([]int, count)
	for i := range pins {
		pins[i] = start + i
	}
	return pins
}

// Validate checks that there is one button per light and no line is used twice.
func (p Pins) Validate() error {
	if p.Chip == "" {
		return errors.New("gpio: chip name is empty")
	}
	if len(p.Lights) == 0 {
		return errors.New("gpio: no light pins")
	}
	if len(p.Buttons) != len(p.Lights) {
		return fmt.Errorf("gpio: %d button pins for %d light pins", len(p.Buttons), len(p.Lights))
	}

	seen := map[int]string{}
	check := func(pin int, name string) error {
		if pin < 0 {
			return fmt.Errorf("gpio: %s pin %d is negative", name, pin)
		}
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("gpio: pin %d used by both %s and %s", pin, other, name)
		}
		seen[pin] = name
		return nil
	}

	if err := check(p.Selector, "selector"); err != nil {
		return err
	}
	for i, pin := range p.Buttons {
		if err := check(pin, fmt.Sprintf("button %d", i+1)); err != nil {
			return err
		}
	}
	for i, pin := range p.Lights {
		if err := check(pin, fmt.Sprintf("light %d", i+1)); err != nil {
			return err
		}
	}
	return nil
}
