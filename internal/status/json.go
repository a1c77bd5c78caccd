package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/beating-heart/internal/display"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	BPM           int          `json:"bpm"`
	State         string       `json:"state"`
	IntervalMs    int          `json:"interval_ms"`
	SpendMs       int          `json:"spend_ms"`
	PanicDelta    int          `json:"panic_delta"`
	SustainedBPM  *int         `json:"sustained_bpm"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of the heart's counters.
type CountsJSON struct {
	Beats  int `json:"beats"`
	Deaths int `json:"deaths"`
	Panics int `json:"panics"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	BaselineBPM int    `json:"baseline_bpm"`
	PanicLevel  int    `json:"panic_level"`
	Input       string `json:"input"`
	Display     string `json:"display"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ReportMs    int64  `json:"report_ms"`
}

// FrameJSON is the JSON representation of the 5x5 display.
type FrameJSON struct {
	Rows    [display.Height][display.Width]int `json:"rows"`
	Image   string                             `json:"image"`
	BPM     int                                `json:"bpm"`
	State   string                             `json:"state"`
	Dead    bool                               `json:"dead"`
	Beats   int                                `json:"beats"`
	Elapsed int64                              `json:"elapsed_ms"`
}

func buildInner(snap Snapshot) StatusInner {
	state := string(snap.Beat.State)
	if state == "" {
		state = "UNKNOWN"
	}

	inner := StatusInner{
		BPM:           snap.Beat.BPM,
		State:         state,
		IntervalMs:    snap.Beat.IntervalMs,
		SpendMs:       snap.Beat.SpendMs,
		PanicDelta:    snap.Beat.PanicDelta,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Beats:  snap.Counts.Beats,
			Deaths: snap.Counts.Deaths,
			Panics: snap.Counts.Panics,
		},
		Config: ConfigJSON{
			BaselineBPM: snap.Config.BaselineBPM,
			PanicLevel:  snap.Config.PanicLevel,
			Input:       snap.Config.Input,
			Display:     snap.Config.Display,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ReportMs:    snap.Config.ReportMs,
		},
	}
	if snap.Sustained > 0 {
		sustained := snap.Sustained
		inner.SustainedBPM = &sustained
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// FormatFrame returns the compact JSON frame pushed to the status page.
func FormatFrame(snap Snapshot) []byte {
	data, _ := json.Marshal(FrameJSON{
		Rows:    snap.Frame,
		Image:   snap.Frame.String(),
		BPM:     snap.Beat.BPM,
		State:   string(snap.Beat.State),
		Dead:    snap.Beat.Dead,
		Beats:   snap.Counts.Beats,
		Elapsed: snap.Uptime().Milliseconds(),
	})
	return data
}
