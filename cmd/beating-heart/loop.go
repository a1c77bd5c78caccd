package main

import (
	"fmt"
	"log"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/beating-heart/internal/animate"
	"github.com/sweeney/beating-heart/internal/input"
	"github.com/sweeney/beating-heart/internal/logic"
	"github.com/sweeney/beating-heart/internal/mqtt"
	"github.com/sweeney/beating-heart/internal/status"
)

// heart is everything the control loop owns. Only runLoop's goroutine
// touches it.
type heart struct {
	sampler    *input.Sampler
	controller *logic.Controller
	renderer   *animate.Renderer
	sleeper    animate.Sleeper
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	caption    func(string) // optional status line on the terminal display
	panicLevel int
	report     time.Duration
	now        func() time.Time
}

// runLoop beats until a signal arrives or quit is closed. Both are checked
// between beats, never during one. A nil quit channel is never ready.
func runLoop(h *heart, sig <-chan os.Signal, quit <-chan struct{}) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			h.shutdown(signalName(s))
			return nil
		case <-quit:
			log.Printf("quit key pressed, shutting down")
			h.shutdown("QUIT")
			return nil
		default:
		}

		h.cycle()
	}
}

// cycle runs one heartbeat: sample, rate, render, settle, rest.
func (h *heart) cycle() {
	sample, err := h.sampler.Sample()
	if err != nil {
		log.Printf("input read error: %v", err)
	}
	delta := sample.PanicDelta(h.panicLevel)

	tr := h.controller.Apply(delta)
	spend := h.renderer.Beat(tr.IntervalMs)
	verdict := h.controller.Settle(logic.Outcome{IntervalMs: tr.IntervalMs, SpendMs: spend}, h.now())

	if verdict.Dead {
		log.Printf("death at %d bpm (spent %dms of %dms), recovering at %d bpm",
			tr.BPM, spend, tr.IntervalMs, verdict.BPM)
		h.renderer.Flatline()
	} else {
		h.sleeper.Sleep(time.Duration(verdict.RemainderMs) * time.Millisecond)
	}

	for _, event := range verdict.Events {
		log.Printf("event: %s %s -> %s at %d bpm", event.Type, event.From, event.To, event.BPM)
		if err := h.publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
			// Don't stop the heart on publish failure
		}
	}

	state := h.controller.State()
	sustained, _ := h.controller.SustainedBPM()
	counts := h.controller.CountsSnapshot()
	h.tracker.Update(status.Beat{
		BPM:        verdict.BPM,
		State:      state,
		IntervalMs: tr.IntervalMs,
		SpendMs:    spend,
		PanicDelta: delta,
		Dead:       verdict.Dead,
	}, sustained, counts)
	if h.mqttStatus != nil {
		h.tracker.SetMQTTConnected(h.mqttStatus.IsConnected())
	}

	if h.caption != nil {
		h.caption(fmt.Sprintf("%3d bpm  %-8s beats %d  deaths %d", verdict.BPM, state, counts.Beats, counts.Deaths))
	}

	if rep := h.controller.CheckReport(h.now(), h.report); rep != nil {
		h.publishReport(rep)
	}
}

func (h *heart) publishReport(rep *logic.ReportData) {
	log.Printf("report: uptime=%v bpm=%d state=%s beats=%d deaths=%d panics=%d",
		rep.Uptime.Truncate(time.Second), rep.BPM, rep.State, rep.Counts.Beats, rep.Counts.Deaths, rep.Counts.Panics)

	// Refresh network info for the report
	if net := readNetworkInfo(); net != nil {
		h.tracker.SetNetwork(net)
	}
	snap := h.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  rep.Timestamp,
		Event:      "REPORT",
		RawPayload: status.FormatStatusEvent(snap, "REPORT", ""),
	}
	if err := h.publisher.PublishSystem(event); err != nil {
		log.Printf("report publish error: %v", err)
	}
}

func (h *heart) shutdown(reason string) {
	if h.mqttStatus != nil {
		h.tracker.SetMQTTConnected(h.mqttStatus.IsConnected())
	}
	snap := h.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  h.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := h.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
