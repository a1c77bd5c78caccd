// Package input samples the heart's stimulus sources (two buttons, two touch
// pads and a motion gesture) and reduces them to a single panic delta.
package input

import (
	"errors"
	"fmt"
	"strings"
)

// PadThreshold is the analog reading above which a pad counts as touched.
const PadThreshold = 300

// GestureWeight is how many stimuli a panic gesture is worth.
const GestureWeight = 4

// Source names a boolean stimulus source.
type Source string

const (
	ButtonA Source = "a"
	ButtonB Source = "b"
	Pad1    Source = "pin1"
	Pad2    Source = "pin2"
)

// Gesture is a motion classification reported by the accelerometer.
type Gesture string

const (
	GestureNone     Gesture = "none"
	GestureUp       Gesture = "up"
	GestureDown     Gesture = "down"
	GestureLeft     Gesture = "left"
	GestureRight    Gesture = "right"
	GestureFaceUp   Gesture = "face up"
	GestureFaceDown Gesture = "face down"
	GestureFreefall Gesture = "freefall"
	Gesture3G       Gesture = "3g"
	Gesture6G       Gesture = "6g"
	Gesture8G       Gesture = "8g"
	GestureShake    Gesture = "shake"
)

var gestures = map[Gesture]bool{
	GestureNone: true, GestureUp: true, GestureDown: true, GestureLeft: true,
	GestureRight: true, GestureFaceUp: true, GestureFaceDown: true,
	GestureFreefall: true, Gesture3G: true, Gesture6G: true, Gesture8G: true,
	GestureShake: true,
}

// ParseGesture maps a gesture name to a Gesture. Matching is case-insensitive
// and treats '-' and '_' as spaces, so "face-down" and "FACE_DOWN" both parse.
// An empty name is GestureNone.
func ParseGesture(name string) (Gesture, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", " ", "_", " ").Replace(n)
	if n == "" {
		return GestureNone, nil
	}
	if n == "free fall" {
		n = string(GestureFreefall)
	}
	g := Gesture(n)
	if !gestures[g] {
		return GestureNone, fmt.Errorf("unknown gesture %q", name)
	}
	return g, nil
}

// IsPanic reports whether the gesture startles the heart.
func (g Gesture) IsPanic() bool {
	switch g {
	case GestureShake, GestureFreefall, GestureFaceDown:
		return true
	}
	return false
}

// Sample is one cycle's view of every stimulus source.
type Sample struct {
	Pressed []Source
	Gesture Gesture
}

// Has reports whether src was active in the sample.
func (s Sample) Has(src Source) bool {
	for _, p := range s.Pressed {
		if p == src {
			return true
		}
	}
	return false
}

// PanicDelta reduces the sample to a BPM increase: level per active source,
// plus GestureWeight*level for a panic gesture.
func (s Sample) PanicDelta(level int) int {
	delta := level * len(s.Pressed)
	if s.Gesture.IsPanic() {
		delta += level * GestureWeight
	}
	return delta
}

// ButtonReader reads the two push buttons. gpio.Reader satisfies it.
type ButtonReader interface {
	Read() (aPressed, bPressed bool, err error)
}

// AnalogReader reads a raw analog value from a channel.
type AnalogReader interface {
	ReadAnalog(channel int) (int, error)
}

// GestureReader reports the most recent motion gesture.
type GestureReader interface {
	CurrentGesture() Gesture
}

// Gestures merges several gesture sources. Every source is read on each call
// so latched sources are cleared; the first panic gesture wins, otherwise the
// first gesture other than none.
type Gestures []GestureReader

// CurrentGesture implements GestureReader.
func (gs Gestures) CurrentGesture() Gesture {
	out := GestureNone
	for _, r := range gs {
		g := r.CurrentGesture()
		switch {
		case g.IsPanic() && !out.IsPanic():
			out = g
		case out == GestureNone:
			out = g
		}
	}
	return out
}

// Sampler polls every source once per call. It keeps no state between calls.
// Any reader may be nil, in which case its sources never fire.
type Sampler struct {
	buttons ButtonReader
	analog  AnalogReader
	motion  GestureReader
	pads    [2]int
}

// NewSampler creates a Sampler. pad1 and pad2 are the analog channels of the
// two touch pads.
func NewSampler(buttons ButtonReader, analog AnalogReader, pad1, pad2 int, motion GestureReader) *Sampler {
	return &Sampler{
		buttons: buttons,
		analog:  analog,
		motion:  motion,
		pads:    [2]int{pad1, pad2},
	}
}

// Sample reads all sources. Sources that fail to read count as inactive; their
// errors are joined and returned alongside the partial sample.
func (s *Sampler) Sample() (Sample, error) {
	out := Sample{Gesture: GestureNone}
	var errs []error

	if s.buttons != nil {
		a, b, err := s.buttons.Read()
		if err != nil {
			errs = append(errs, fmt.Errorf("buttons: %w", err))
		} else {
			if a {
				out.Pressed = append(out.Pressed, ButtonA)
			}
			if b {
				out.Pressed = append(out.Pressed, ButtonB)
			}
		}
	}

	if s.analog != nil {
		for i, src := range []Source{Pad1, Pad2} {
			v, err := s.analog.ReadAnalog(s.pads[i])
			if err != nil {
				errs = append(errs, fmt.Errorf("pad %s: %w", src, err))
				continue
			}
			if v > PadThreshold {
				out.Pressed = append(out.Pressed, src)
			}
		}
	}

	if s.motion != nil {
		out.Gesture = s.motion.CurrentGesture()
	}

	return out, errors.Join(errs...)
}
