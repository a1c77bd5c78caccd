package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/logic"
	"github.com/sweeney/beating-heart/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker, *Server) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		BaselineBPM: 60,
		PanicLevel:  4,
		Input:       "gpio",
		Display:     "headless",
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		ReportMs:    900000,
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr, srv
}

func getStatus(t *testing.T, url string) status.StatusJSON {
	t.Helper()
	resp, err := http.Get(url + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return sj
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(status.Beat{BPM: 64, State: logic.StatePanic, IntervalMs: 937, SpendMs: 936},
		60, logic.Counts{Beats: 5, Panics: 2})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.BPM != 64 {
		t.Errorf("BPM: got %d, want 64", sj.Status.BPM)
	}
	if sj.Status.State != "PANIC" {
		t.Errorf("State: got %q, want PANIC", sj.Status.State)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q, want tcp://192.168.1.200:1883", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Beats != 5 || sj.Status.Counts.Panics != 2 {
		t.Errorf("Counts: got %+v", sj.Status.Counts)
	}
	if sj.Status.Config.PanicLevel != 4 {
		t.Errorf("Config.PanicLevel: got %d, want 4", sj.Status.Config.PanicLevel)
	}
}

func TestJSONNetworkInfo(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.SetNetwork(&status.NetworkInfo{
		Type:   "wifi",
		IP:     "192.168.1.42",
		Status: "connected",
		SSID:   "MyNet",
	})

	sj := getStatus(t, ts.URL)
	if sj.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if sj.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", sj.Status.Network.IP)
	}
}

func TestFrameEndpoint(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	grid := display.NewGrid()
	tr.SetFrameSource(grid)
	display.Show(grid, display.Heart)

	resp, err := http.Get(ts.URL + "/frame.json")
	if err != nil {
		t.Fatalf("GET /frame.json: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var f status.FrameJSON
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	if f.Image != display.Heart.String() {
		t.Errorf("Image: got %q, want %q", f.Image, display.Heart.String())
	}
	if f.BPM != 60 {
		t.Errorf("BPM: got %d, want 60", f.BPM)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	tr.Update(status.Beat{BPM: 72, State: logic.StateCooldown}, 72, logic.Counts{Deaths: 3})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}

	body, _ := io.ReadAll(resp.Body)
	page := string(body)
	for _, want := range []string{"COOLDOWN", `<span id="bpm">72</span>`, `id="px-4-4"`, "/frame.ws"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLEndpointIndexHTML(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/index.html")
	if err != nil {
		t.Fatalf("GET /index.html: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr, _ := newTestServer(t)

	sj1 := getStatus(t, ts.URL)
	if sj1.Status.Counts.Beats != 0 {
		t.Error("expected no beats initially")
	}

	tr.Update(status.Beat{BPM: 60, State: logic.StateDeath, Dead: true}, 60, logic.Counts{Deaths: 1})
	tr.SetMQTTConnected(true)

	sj2 := getStatus(t, ts.URL)
	if sj2.Status.State != "DEATH" {
		t.Errorf("State: got %q, want DEATH", sj2.Status.State)
	}
	if sj2.Status.Counts.Deaths != 1 {
		t.Errorf("Deaths: got %d, want 1", sj2.Status.Counts.Deaths)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}

func dialStream(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/frame.ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) status.FrameJSON {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f status.FrameJSON
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestStreamPushesInitialAndChangedFrames(t *testing.T) {
	ts, tr, _ := newTestServer(t)
	grid := display.NewGrid()
	tr.SetFrameSource(grid)

	conn := dialStream(t, ts)

	first := readFrame(t, conn)
	if first.Image != (display.Image{}).String() {
		t.Errorf("first frame: got %q, want blank", first.Image)
	}

	display.Show(grid, display.HeartSmall)

	second := readFrame(t, conn)
	if second.Image != display.HeartSmall.String() {
		t.Errorf("second frame: got %q, want %q", second.Image, display.HeartSmall.String())
	}
}

func TestStreamClosedOnShutdown(t *testing.T) {
	ts, _, srv := newTestServer(t)
	conn := dialStream(t, ts)
	readFrame(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}
