package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderRead(t *testing.T) {
	samples := []Sample{
		{A: true, B: false},
		{A: false, B: true},
		{A: true, B: true},
	}

	f := NewFakeReader(samples)

	// Read first sample
	a, b, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != true || b != false {
		t.Errorf("sample 0: expected (true, false), got (%v, %v)", a, b)
	}

	// Read second sample
	a, b, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != false || b != true {
		t.Errorf("sample 1: expected (false, true), got (%v, %v)", a, b)
	}

	// Read third sample
	a, b, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != true || b != true {
		t.Errorf("sample 2: expected (true, true), got (%v, %v)", a, b)
	}

	// Fourth read should repeat last sample
	a, b, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != true || b != true {
		t.Errorf("sample 3 (repeat): expected (true, true), got (%v, %v)", a, b)
	}

	if f.Reads != 4 {
		t.Errorf("Reads: got %d, want 4", f.Reads)
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, _, err := f.Read()
	if err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]Sample{{A: true, B: true}})
	f.ReadError = errors.New("simulated error")

	_, _, err := f.Read()
	if err == nil {
		t.Error("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]Sample{{A: true, B: true}})

	if f.Closed {
		t.Error("should not be closed initially")
	}

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFakeReaderReset(t *testing.T) {
	samples := []Sample{
		{A: true, B: false},
		{A: false, B: true},
	}

	f := NewFakeReader(samples)

	// Consume first sample
	f.Read()

	f.Reset()

	// Should read first sample again
	a, b, _ := f.Read()
	if a != true || b != false {
		t.Errorf("after reset: expected (true, false), got (%v, %v)", a, b)
	}
	if f.Reads != 1 {
		t.Errorf("Reads after reset: got %d, want 1", f.Reads)
	}
}

func TestFakeReaderImplementsReader(t *testing.T) {
	var _ Reader = NewFakeReader(nil)
}
