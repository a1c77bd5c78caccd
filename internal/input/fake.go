package input

// FakeAnalog is a test double returning fixed values per channel.
type FakeAnalog struct {
	// Values maps channel to raw reading. Missing channels read 0.
	Values map[int]int

	// ReadError, if set, will be returned by ReadAnalog.
	ReadError error
}

// ReadAnalog returns Values[channel].
func (f *FakeAnalog) ReadAnalog(channel int) (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.Values[channel], nil
}

// FakeMotion is a test double that returns scripted gestures.
// Each call consumes the next gesture; the last one repeats.
type FakeMotion struct {
	Gestures []Gesture
	index    int
}

// NewFakeMotion creates a FakeMotion with the given script.
func NewFakeMotion(gestures ...Gesture) *FakeMotion {
	return &FakeMotion{Gestures: gestures}
}

// CurrentGesture returns the next scripted gesture, or GestureNone if the
// script is empty.
func (f *FakeMotion) CurrentGesture() Gesture {
	if len(f.Gestures) == 0 {
		return GestureNone
	}
	g := f.Gestures[f.index]
	if f.index < len(f.Gestures)-1 {
		f.index++
	}
	return g
}
