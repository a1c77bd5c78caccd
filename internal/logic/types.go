// Package logic contains the pure heart-rate control logic.
// This package has NO external dependencies (no GPIO, MQTT, display, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// MinBPM is the lowest rate the heart is ever allowed to hold.
const MinBPM = 1

// DeathThresholdMs is the spend below which a beat counts as a death.
const DeathThresholdMs = 100

// msPerMinute converts BPM into a beat interval.
const msPerMinute = 60 * 1000

// State is the controller state for one cycle.
type State string

const (
	StateSteady   State = "STEADY"
	StatePanic    State = "PANIC"
	StateCooldown State = "COOLDOWN"
	StateRest     State = "REST"
	StateDeath    State = "DEATH"
)

// EventType represents a controller event.
type EventType string

const (
	EventState EventType = "STATE"
	EventDeath EventType = "DEATH"
)

// Event represents a state change or death to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      State
	To        State
	BPM       int
	// IntervalMs and SpendMs describe the beat that produced the event.
	IntervalMs int
	SpendMs    int
}

// Transition is the result of applying one cycle's panic delta.
type Transition struct {
	State      State
	BPM        int
	IntervalMs int
}

// Outcome is what the renderer reports back for one beat.
type Outcome struct {
	IntervalMs int
	SpendMs    int
}

// Verdict tells the loop what to do after a beat.
type Verdict struct {
	// Dead is true when the beat was too fast to render; play the flatline.
	Dead bool
	// RemainderMs is how long to sleep to finish the beat interval. Never negative.
	RemainderMs int
	// BPM is the rate after settling (reset to the sustained rate on death).
	BPM    int
	Events []Event
}

// Counts tracks what the heart has done since startup.
type Counts struct {
	Beats  int
	Deaths int
	Panics int
}

// ReportData contains information for a periodic status report.
type ReportData struct {
	Timestamp time.Time
	Uptime    time.Duration
	BPM       int
	State     State
	Counts    Counts
}

// IntervalFor returns the beat interval in milliseconds for bpm.
// Rates below MinBPM are treated as MinBPM.
func IntervalFor(bpm int) int {
	return msPerMinute / max(bpm, MinBPM)
}
