// Package mqtt publishes heart telemetry and receives motion gestures over
// MQTT, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/beating-heart/internal/logic"
)

// Topic is the MQTT topic for heart state changes and deaths.
const Topic = "heart/beating/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "heart/beating/system"

// TopicGesture is the MQTT topic a motion classifier publishes gestures to.
const TopicGesture = "heart/beating/gesture"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a heart event to the broker.
	// Returns error if publishing fails (should not stop the heart).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, report).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "REPORT", "RECONNECTED"
	Reason     string // e.g., "SIGTERM", "SIGINT", "QUIT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Heart HeartPayload `json:"heart"`
}

// HeartPayload contains the heart event details.
type HeartPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	From       string `json:"from"`
	To         string `json:"to"`
	BPM        int    `json:"bpm"`
	IntervalMs int    `json:"interval_ms"`
	SpendMs    int    `json:"spend_ms"`
}

// FormatPayload creates the JSON payload for a heart event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Heart: HeartPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			From:       string(event.From),
			To:         string(event.To),
			BPM:        event.BPM,
			IntervalMs: event.IntervalMs,
			SpendMs:    event.SpendMs,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher discards everything. Used when MQTT is disabled.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(logic.Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }
