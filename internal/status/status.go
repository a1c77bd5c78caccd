// Package status provides a thread-safe status tracker for the beating-heart daemon.
// It is read by the HTTP handlers while the control loop writes to it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	BaselineBPM int
	PanicLevel  int
	Input       string
	Display     string
	Broker      string
	HTTPAddr    string
	ReportMs    int64
}

// Beat describes the most recent cycle of the control loop.
type Beat struct {
	BPM        int
	State      logic.State
	IntervalMs int
	SpendMs    int
	PanicDelta int
	Dead       bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Beat          Beat
	Sustained     int
	Counts        logic.Counts
	Frame         display.Image
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// FrameSource provides the live display contents. display.Grid satisfies it.
type FrameSource interface {
	Frame() display.Image
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	source FrameSource
}

// NewTracker creates a Tracker with the given start time and config.
// The heart starts at the configured baseline in STEADY.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Beat: Beat{
				BPM:        cfg.BaselineBPM,
				State:      logic.StateSteady,
				IntervalMs: logic.IntervalFor(cfg.BaselineBPM),
			},
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the outcome of one cycle. Called from runLoop after every beat.
func (t *Tracker) Update(beat Beat, sustained int, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Beat = beat
	t.snap.Sustained = sustained
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetFrameSource attaches the display so snapshots carry the live frame.
func (t *Tracker) SetFrameSource(src FrameSource) {
	t.mu.Lock()
	t.source = src
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// Frame is read from the frame source, if one is attached. The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	src := t.source
	t.mu.RUnlock()
	if src != nil {
		s.Frame = src.Frame()
	}
	s.Now = time.Now()
	return s
}
