package animate

import "time"

// RecordingSleeper is a test double that records requested pauses and
// returns immediately.
type RecordingSleeper struct {
	// Sleeps contains every duration passed to Sleep, in order.
	Sleeps []time.Duration

	// OnSleep, if set, is called after each recorded sleep.
	OnSleep func(d time.Duration)
}

// NewRecordingSleeper creates an empty RecordingSleeper.
func NewRecordingSleeper() *RecordingSleeper {
	return &RecordingSleeper{}
}

// Sleep records d.
func (s *RecordingSleeper) Sleep(d time.Duration) {
	s.Sleeps = append(s.Sleeps, d)
	if s.OnSleep != nil {
		s.OnSleep(d)
	}
}

// Total returns the sum of all recorded sleeps.
func (s *RecordingSleeper) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Sleeps {
		total += d
	}
	return total
}

// Reset clears recorded sleeps.
func (s *RecordingSleeper) Reset() {
	s.Sleeps = nil
}
