//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	aPin *gpiocdev.Line
	bPin *gpiocdev.Line
}

// NewRealReader creates a button reader on the given chip and BCM pins.
func NewRealReader(chipName string, pinA, pinB int) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	// Buttons short the line to ground when pressed, so hold it high otherwise.
	aLine, err := chip.RequestLine(pinA, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button A pin %d: %w", pinA, err)
	}

	bLine, err := chip.RequestLine(pinB, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		aLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request button B pin %d: %w", pinB, err)
	}

	return &RealReader{
		chip: chip,
		aPin: aLine,
		bPin: bLine,
	}, nil
}

// Read returns the logical states of buttons A and B.
// Inverts raw GPIO: raw low (0) = pressed, raw high (1) = released.
func (r *RealReader) Read() (bool, bool, error) {
	aRaw, err := r.aPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read button A: %w", err)
	}

	bRaw, err := r.bPin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read button B: %w", err)
	}

	return aRaw == 0, bRaw == 0, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing so the lines are left the way the firmware expects them.
func (r *RealReader) Close() error {
	var errs []error

	for name, line := range map[string]*gpiocdev.Line{"A": r.aPin, "B": r.bPin} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
