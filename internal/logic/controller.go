package logic

import "time"

// Config holds the two startup parameters of the heart.
type Config struct {
	BaselineBPM int
	PanicLevel  int
}

// Controller owns the heart rate and decides, each cycle, how it moves.
type Controller struct {
	baseline   int
	panicLevel int
	current    int

	// sustained is the last rate that rendered a full beat; 0 until the first.
	sustained int

	state      State
	lastState  State
	counts     Counts
	startTime  time.Time
	lastReport time.Time
}

// transitions holds one function per state. Each returns the new BPM.
var transitions = map[State]func(c *Controller, delta int) int{
	StatePanic:    (*Controller).onPanic,
	StateCooldown: (*Controller).onCooldown,
	StateRest:     (*Controller).onRest,
	StateSteady:   (*Controller).onSteady,
	StateDeath:    (*Controller).onDeath,
}

// NewController creates a controller resting at cfg.BaselineBPM.
// The startTime is used for calculating uptime in reports.
func NewController(cfg Config, startTime time.Time) *Controller {
	baseline := max(cfg.BaselineBPM, MinBPM)
	return &Controller{
		baseline:   baseline,
		panicLevel: max(cfg.PanicLevel, 0),
		current:    baseline,
		state:      StateSteady,
		lastState:  StateSteady,
		startTime:  startTime,
		lastReport: startTime,
	}
}

// classify picks the state for this cycle from the delta and the current rate.
func (c *Controller) classify(delta int) State {
	switch {
	case delta > 0:
		return StatePanic
	case c.current > c.baseline:
		return StateCooldown
	case c.current < c.baseline:
		return StateRest
	default:
		return StateSteady
	}
}

func (c *Controller) onPanic(delta int) int {
	return c.current + delta
}

// onCooldown steps down by the panic level without undershooting the baseline.
func (c *Controller) onCooldown(int) int {
	return max(c.current-c.panicLevel, c.baseline)
}

func (c *Controller) onRest(int) int {
	return c.baseline
}

func (c *Controller) onSteady(int) int {
	return c.current
}

// onDeath falls back to the last sustained rate, or the baseline before the
// first sustained beat.
func (c *Controller) onDeath(int) int {
	if c.sustained == 0 {
		return c.baseline
	}
	return c.sustained
}

// Apply moves the rate according to this cycle's panic delta and returns the
// beat interval to render. Negative deltas are treated as zero.
func (c *Controller) Apply(panicDelta int) Transition {
	delta := max(panicDelta, 0)
	c.state = c.classify(delta)
	c.current = max(transitions[c.state](c, delta), MinBPM)
	if c.state == StatePanic {
		c.counts.Panics++
	}

	return Transition{
		State:      c.state,
		BPM:        c.current,
		IntervalMs: IntervalFor(c.current),
	}
}

// Settle takes the renderer's outcome for the beat planned by the last Apply
// and decides between a normal beat and a death.
//
// A spend under DeathThresholdMs means the heart cannot keep up: the rate
// falls back to the last sustained rate (the baseline if no beat has been
// sustained yet). Otherwise the current rate becomes the sustained rate and
// the remainder of the interval is returned for the caller to sleep.
func (c *Controller) Settle(o Outcome, now time.Time) Verdict {
	var events []Event

	if o.SpendMs < DeathThresholdMs {
		from := c.state
		c.state = StateDeath
		c.current = max(transitions[StateDeath](c, 0), MinBPM)
		c.counts.Deaths++

		events = append(events, Event{
			Timestamp:  now,
			Type:       EventDeath,
			From:       from,
			To:         StateDeath,
			BPM:        c.current,
			IntervalMs: o.IntervalMs,
			SpendMs:    o.SpendMs,
		})
		c.lastState = StateDeath

		return Verdict{Dead: true, BPM: c.current, Events: events}
	}

	c.sustained = c.current
	c.counts.Beats++

	if c.state != c.lastState {
		events = append(events, Event{
			Timestamp:  now,
			Type:       EventState,
			From:       c.lastState,
			To:         c.state,
			BPM:        c.current,
			IntervalMs: o.IntervalMs,
			SpendMs:    o.SpendMs,
		})
		c.lastState = c.state
	}

	return Verdict{
		RemainderMs: max(o.IntervalMs-o.SpendMs, 0),
		BPM:         c.current,
		Events:      events,
	}
}

// BPM returns the current rate.
func (c *Controller) BPM() int {
	return c.current
}

// BaselineBPM returns the configured resting rate.
func (c *Controller) BaselineBPM() int {
	return c.baseline
}

// SustainedBPM returns the last rate that completed a beat, and whether any has.
func (c *Controller) SustainedBPM() (int, bool) {
	return c.sustained, c.sustained != 0
}

// State returns the state of the most recent cycle.
func (c *Controller) State() State {
	return c.state
}

// CountsSnapshot returns a copy of the counters.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}

// CheckReport returns report data if the interval has elapsed since the last
// report (or startup). Returns nil if the interval has not elapsed, or if
// interval is <= 0 (disabled).
func (c *Controller) CheckReport(now time.Time, interval time.Duration) *ReportData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(c.lastReport) < interval {
		return nil
	}

	c.lastReport = now
	return &ReportData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		BPM:       c.current,
		State:     c.state,
		Counts:    c.counts,
	}
}
