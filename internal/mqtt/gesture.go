package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/beating-heart/internal/input"
)

// DefaultGestureTTL is how long a received gesture stays current.
const DefaultGestureTTL = 1500 * time.Millisecond

// GestureMessage is the JSON form of a gesture payload. Plain-text payloads
// containing just the gesture name are accepted too.
type GestureMessage struct {
	Gesture string `json:"gesture"`
}

// GestureFeed holds the latest gesture received from the broker. It
// implements input.GestureReader and is safe for concurrent use.
type GestureFeed struct {
	mu     sync.Mutex
	latest input.Gesture
	at     time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewGestureFeed creates a feed whose gestures expire after ttl.
func NewGestureFeed(ttl time.Duration) *GestureFeed {
	return newGestureFeed(ttl, time.Now)
}

func newGestureFeed(ttl time.Duration, now func() time.Time) *GestureFeed {
	return &GestureFeed{latest: input.GestureNone, ttl: ttl, now: now}
}

// Update parses payload and records it as the current gesture.
func (f *GestureFeed) Update(payload []byte) error {
	name := string(bytes.TrimSpace(payload))
	if len(name) > 0 && name[0] == '{' {
		var msg GestureMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("decode gesture: %w", err)
		}
		name = msg.Gesture
	}

	g, err := input.ParseGesture(name)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.latest = g
	f.at = f.now()
	f.mu.Unlock()
	return nil
}

// Handle is a paho message handler for TopicGesture.
func (f *GestureFeed) Handle(_ paho.Client, msg paho.Message) {
	if err := f.Update(msg.Payload()); err != nil {
		log.Printf("mqtt: ignoring gesture on %s: %v", msg.Topic(), err)
	}
}

// CurrentGesture returns the latest gesture, or GestureNone once it is
// older than the TTL.
func (f *GestureFeed) CurrentGesture() input.Gesture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == input.GestureNone || f.now().Sub(f.at) > f.ttl {
		return input.GestureNone
	}
	return f.latest
}
