//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealBoard drives actual hardware using the Linux GPIO character device.
type RealBoard struct {
	chip    *gpiocdev.Chip
	inputs  *gpiocdev.Lines
	outputs *gpiocdev.Lines

	in  []int
	out []int
}

// NewRealBoard requests the button lines as pulled-up inputs and the light
// lines as outputs driven low.
func NewRealBoard(p Pins) (*RealBoard, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	chip, err := gpiocdev.NewChip(p.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", p.Chip, err)
	}

	// Selector first, then one line per button.
	offsets := append([]int{p.Selector}, p.Buttons...)
	inputs, err := chip.RequestLines(offsets, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request input pins %v: %w", offsets, err)
	}

	outputs, err := chip.RequestLines(p.Lights, gpiocdev.AsOutput(make([]int, len(p.Lights))...))
	if err != nil {
		inputs.Close()
		chip.Close()
		return nil, fmt.Errorf("request light pins %v: %w", p.Lights, err)
	}

	return &RealBoard{
		chip:    chip,
		inputs:  inputs,
		outputs: outputs,
		in:      make([]int, len(offsets)),
		out:     make([]int, len(p.Lights)),
	}, nil
}

// Read returns the logical button levels.
// Inverts raw GPIO: the pull-up holds an idle line at 1, a press pulls it to 0.
func (b *RealBoard) Read() (Levels, error) {
	if err := b.inputs.Values(b.in); err != nil {
		return Levels{}, fmt.Errorf("read input pins: %w", err)
	}

	lv := Levels{
		Selector: b.in[0] == 0,
		Buttons:  make([]bool, len(b.in)-1),
	}
	for i, raw := range b.in[1:] {
		lv.Buttons[i] = raw == 0
	}
	return lv, nil
}

// Write drives the LEDs; extra entries are ignored, missing entries are off.
func (b *RealBoard) Write(lit []bool) error {
	for i := range b.out {
		b.out[i] = 0
		if i < len(lit) && lit[i] {
			b.out[i] = 1
		}
	}
	if err := b.outputs.SetValues(b.out); err != nil {
		return fmt.Errorf("write light pins: %w", err)
	}
	return nil
}

// Close turns every LED off and releases GPIO resources.
// Light lines are reconfigured to inputs before release so nothing is left
// driven through a reboot.
func (b *RealBoard) Close() error {
	var errs []error

	if b.outputs != nil {
		if err := b.Write(nil); err != nil {
			errs = append(errs, err)
		}
		if err := b.outputs.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure light pins: %w", err))
		}
		if err := b.outputs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pins: %w", err))
		}
	}
	if b.inputs != nil {
		if err := b.inputs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pins: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	return errors.Join(errs...)
}
