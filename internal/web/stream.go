package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/logic"
	"github.com/sweeney/beating-heart/internal/status"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// How often the stream samples the tracker for a changed frame.
	framePeriod = 40 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// frameKey is the part of a snapshot that, when changed, is worth pushing.
type frameKey struct {
	frame display.Image
	beat  status.Beat
	count logic.Counts
}

func keyOf(snap status.Snapshot) frameKey {
	return frameKey{frame: snap.Frame, beat: snap.Beat, count: snap.Counts}
}

// handleStream upgrades to a websocket and pushes a frame JSON message every
// time the display or beat changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	go readPump(conn, closed)

	frames := time.NewTicker(framePeriod)
	defer frames.Stop()
	pings := time.NewTicker(pingPeriod)
	defer pings.Stop()

	var last frameKey
	first := true
	for {
		select {
		case <-s.done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-closed:
			return
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-frames.C:
			snap := s.tracker.Snapshot()
			key := keyOf(snap)
			if !first && key == last {
				continue
			}
			first = false
			last = key

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, status.FormatFrame(snap)); err != nil {
				return
			}
		}
	}
}

// readPump drains the peer so control frames are processed, and closes
// closed when the peer goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: frame stream: %v", err)
			}
			return
		}
	}
}
