package logic

import (
	"testing"
	"time"
)

var start = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestController(baseline, panicLevel int) *Controller {
	return NewController(Config{BaselineBPM: baseline, PanicLevel: panicLevel}, start)
}

// beat runs one full cycle with an ideal renderer that spends
// Steps*floor(interval/Steps) milliseconds.
func beat(c *Controller, delta int) (Transition, Verdict) {
	tr := c.Apply(delta)
	spend := 8 * (tr.IntervalMs / 8)
	v := c.Settle(Outcome{IntervalMs: tr.IntervalMs, SpendMs: spend}, start)
	return tr, v
}

func TestNewController(t *testing.T) {
	c := newTestController(60, 4)
	if c == nil {
		t.Fatal("NewController returned nil")
	}
	if c.BPM() != 60 {
		t.Errorf("BPM: got %d, want 60", c.BPM())
	}
	if c.BaselineBPM() != 60 {
		t.Errorf("BaselineBPM: got %d, want 60", c.BaselineBPM())
	}
	if c.State() != StateSteady {
		t.Errorf("State: got %s, want STEADY", c.State())
	}
	if _, ok := c.SustainedBPM(); ok {
		t.Error("new controller should have no sustained rate")
	}
	if !c.lastReport.Equal(start) {
		t.Errorf("expected lastReport %v, got %v", start, c.lastReport)
	}
}

func TestNewControllerFloorsBaseline(t *testing.T) {
	c := newTestController(0, 4)
	if c.BPM() != MinBPM {
		t.Errorf("BPM: got %d, want %d", c.BPM(), MinBPM)
	}
	if tr := c.Apply(0); tr.IntervalMs != 60000 {
		t.Errorf("IntervalMs: got %d, want 60000", tr.IntervalMs)
	}
}

func TestIntervalFor(t *testing.T) {
	tests := []struct {
		bpm, want int
	}{
		{60, 1000},
		{64, 937},
		{120, 500},
		{7500, 8},
		{7501, 7},
		{0, 60000},
		{-5, 60000},
	}
	for _, tt := range tests {
		if got := IntervalFor(tt.bpm); got != tt.want {
			t.Errorf("IntervalFor(%d): got %d, want %d", tt.bpm, got, tt.want)
		}
	}
}

func TestSteadyAtBaseline(t *testing.T) {
	c := newTestController(60, 4)

	tr, v := beat(c, 0)
	if tr.State != StateSteady {
		t.Errorf("state: got %s, want STEADY", tr.State)
	}
	if tr.BPM != 60 || tr.IntervalMs != 1000 {
		t.Errorf("transition: got %+v, want 60 bpm / 1000ms", tr)
	}
	if v.Dead {
		t.Error("steady beat should not die")
	}
	if v.RemainderMs != 0 {
		t.Errorf("remainder: got %d, want 0", v.RemainderMs)
	}
	if s, ok := c.SustainedBPM(); !ok || s != 60 {
		t.Errorf("sustained: got (%d, %v), want (60, true)", s, ok)
	}
	if len(v.Events) != 0 {
		t.Errorf("expected no events, got %v", v.Events)
	}
}

func TestPanicRaisesRate(t *testing.T) {
	c := newTestController(60, 4)

	tr, v := beat(c, 4)
	if tr.State != StatePanic {
		t.Errorf("state: got %s, want PANIC", tr.State)
	}
	if tr.BPM != 64 {
		t.Errorf("BPM: got %d, want 64", tr.BPM)
	}
	if tr.IntervalMs != 937 {
		t.Errorf("IntervalMs: got %d, want 937", tr.IntervalMs)
	}
	// spend = 8 * 117 = 936
	if v.RemainderMs != 1 {
		t.Errorf("remainder: got %d, want 1", v.RemainderMs)
	}
	if len(v.Events) != 1 || v.Events[0].Type != EventState || v.Events[0].To != StatePanic {
		t.Errorf("expected one STATE->PANIC event, got %+v", v.Events)
	}
	if v.Events[0].From != StateSteady {
		t.Errorf("event from: got %s, want STEADY", v.Events[0].From)
	}
}

func TestPanicHasNoUpperBound(t *testing.T) {
	c := newTestController(60, 4)
	for i := 0; i < 50; i++ {
		c.Apply(32)
	}
	if c.BPM() != 60+50*32 {
		t.Errorf("BPM: got %d, want %d", c.BPM(), 60+50*32)
	}
}

func TestNegativeDeltaTreatedAsZero(t *testing.T) {
	c := newTestController(60, 4)
	tr := c.Apply(-10)
	if tr.State != StateSteady || tr.BPM != 60 {
		t.Errorf("got %+v, want steady at 60", tr)
	}
}

func TestCooldownDecreasesToBaseline(t *testing.T) {
	c := newTestController(60, 4)
	c.Apply(20) // 80

	want := []int{76, 72, 68, 64, 60, 60, 60}
	for i, w := range want {
		tr, _ := beat(c, 0)
		if tr.BPM != w {
			t.Errorf("cycle %d: BPM got %d, want %d", i, tr.BPM, w)
		}
		if tr.BPM < 60 {
			t.Errorf("cycle %d: undershot baseline: %d", i, tr.BPM)
		}
	}
	if c.State() != StateSteady {
		t.Errorf("final state: got %s, want STEADY", c.State())
	}
}

func TestCooldownDoesNotUndershoot(t *testing.T) {
	c := newTestController(60, 4)
	c.Apply(2) // 62

	tr := c.Apply(0)
	if tr.State != StateCooldown {
		t.Errorf("state: got %s, want COOLDOWN", tr.State)
	}
	if tr.BPM != 60 {
		t.Errorf("BPM: got %d, want 60 (clamped at baseline)", tr.BPM)
	}
}

func TestCooldownStrictlyDecreasing(t *testing.T) {
	c := newTestController(60, 3)
	c.Apply(100) // 160

	prev := c.BPM()
	for c.BPM() > 60 {
		tr := c.Apply(0)
		if tr.State != StateCooldown {
			t.Fatalf("state: got %s, want COOLDOWN", tr.State)
		}
		if tr.BPM >= prev {
			t.Fatalf("BPM did not decrease: %d -> %d", prev, tr.BPM)
		}
		if prev-tr.BPM > 3 {
			t.Fatalf("BPM dropped by more than the panic level: %d -> %d", prev, tr.BPM)
		}
		prev = tr.BPM
	}
	if tr := c.Apply(0); tr.State != StateSteady || tr.BPM != 60 {
		t.Errorf("after cooldown: got %+v, want steady at 60", tr)
	}
}

func TestRestSnapsUpToBaseline(t *testing.T) {
	c := newTestController(60, 4)
	c.current = 30

	tr := c.Apply(0)
	if tr.State != StateRest {
		t.Errorf("state: got %s, want REST", tr.State)
	}
	if tr.BPM != 60 {
		t.Errorf("BPM: got %d, want 60", tr.BPM)
	}
}

func TestDeathBeforeAnySustainedBeatFallsBackToBaseline(t *testing.T) {
	c := newTestController(60, 4)
	tr := c.Apply(10000)
	if tr.IntervalMs >= 8 {
		t.Fatalf("setup: interval %d should be under 8ms", tr.IntervalMs)
	}

	v := c.Settle(Outcome{IntervalMs: tr.IntervalMs, SpendMs: 0}, start)
	if !v.Dead {
		t.Fatal("expected death")
	}
	if v.BPM != 60 || c.BPM() != 60 {
		t.Errorf("BPM after death: got %d, want baseline 60", c.BPM())
	}
	if c.State() != StateDeath {
		t.Errorf("state: got %s, want DEATH", c.State())
	}
	if v.RemainderMs != 0 {
		t.Errorf("death remainder: got %d, want 0", v.RemainderMs)
	}
}

func TestDeathRecoversToLastSustainedRate(t *testing.T) {
	c := newTestController(60, 4)

	beat(c, 440) // 500 bpm, interval 120, spend 120
	if s, _ := c.SustainedBPM(); s != 500 {
		t.Fatalf("sustained: got %d, want 500", s)
	}

	tr, v := beat(c, 100) // 600 bpm, interval 100, spend 96 < 100
	if tr.BPM != 600 || tr.IntervalMs != 100 {
		t.Fatalf("setup: got %+v", tr)
	}
	if !v.Dead {
		t.Fatal("expected death at 600 bpm")
	}
	if c.BPM() != 500 {
		t.Errorf("BPM after death: got %d, want 500", c.BPM())
	}
	if len(v.Events) != 1 || v.Events[0].Type != EventDeath {
		t.Fatalf("expected one DEATH event, got %+v", v.Events)
	}
	e := v.Events[0]
	if e.From != StatePanic || e.To != StateDeath || e.BPM != 500 || e.SpendMs != 96 {
		t.Errorf("death event: got %+v", e)
	}
}

func TestDeathThresholdBoundary(t *testing.T) {
	c := newTestController(60, 4)
	c.Apply(0)
	if v := c.Settle(Outcome{IntervalMs: 100, SpendMs: 100}, start); v.Dead {
		t.Error("spend of exactly 100ms should not die")
	}
	c.Apply(0)
	if v := c.Settle(Outcome{IntervalMs: 100, SpendMs: 99}, start); !v.Dead {
		t.Error("spend of 99ms should die")
	}
}

func TestDeathDoesNotUpdateSustained(t *testing.T) {
	c := newTestController(60, 4)
	beat(c, 0)
	c.Apply(100000)
	c.Settle(Outcome{SpendMs: 0}, start)

	if s, _ := c.SustainedBPM(); s != 60 {
		t.Errorf("sustained: got %d, want 60", s)
	}
}

func TestNegativeRemainderClampedToZero(t *testing.T) {
	c := newTestController(60, 4)
	c.Apply(0)
	v := c.Settle(Outcome{IntervalMs: 1000, SpendMs: 1500}, start)
	if v.Dead {
		t.Fatal("slow beat should not die")
	}
	if v.RemainderMs != 0 {
		t.Errorf("remainder: got %d, want 0", v.RemainderMs)
	}
}

func TestStateEventAfterDeath(t *testing.T) {
	c := newTestController(60, 4)
	c.Apply(100000)
	c.Settle(Outcome{SpendMs: 0}, start)

	_, v := beat(c, 0)
	if len(v.Events) != 1 {
		t.Fatalf("expected one event, got %+v", v.Events)
	}
	if v.Events[0].From != StateDeath || v.Events[0].To != StateSteady {
		t.Errorf("event: got %s -> %s, want DEATH -> STEADY", v.Events[0].From, v.Events[0].To)
	}
}

func TestNoRepeatStateEvents(t *testing.T) {
	c := newTestController(60, 4)

	_, v1 := beat(c, 4)
	_, v2 := beat(c, 4)
	_, v3 := beat(c, 4)

	if len(v1.Events) != 1 {
		t.Errorf("first panic beat: got %d events, want 1", len(v1.Events))
	}
	if len(v2.Events) != 0 || len(v3.Events) != 0 {
		t.Errorf("continued panic should not emit events: %v %v", v2.Events, v3.Events)
	}
}

func TestCounts(t *testing.T) {
	c := newTestController(60, 4)
	beat(c, 4)
	beat(c, 0)
	c.Apply(100000)
	c.Settle(Outcome{SpendMs: 0}, start)

	got := c.CountsSnapshot()
	want := Counts{Beats: 2, Deaths: 1, Panics: 2}
	if got != want {
		t.Errorf("counts: got %+v, want %+v", got, want)
	}
}

func TestRunawayRateDiesDeterministically(t *testing.T) {
	c := newTestController(60, 4)
	beat(c, 0)

	// Keep panicking at full intensity until the heart dies.
	var deaths int
	for i := 0; i < 1000 && deaths == 0; i++ {
		_, v := beat(c, 32)
		if v.Dead {
			deaths++
			if c.BPM() >= 60+32*(i+1) {
				t.Errorf("rate was not reset on death: %d", c.BPM())
			}
		}
	}
	if deaths == 0 {
		t.Fatal("runaway rate never died")
	}
}

func TestCheckReportDisabled(t *testing.T) {
	c := newTestController(60, 4)
	if r := c.CheckReport(start.Add(time.Hour), 0); r != nil {
		t.Error("expected nil report when interval is 0")
	}
}

func TestCheckReportInterval(t *testing.T) {
	c := newTestController(60, 4)
	beat(c, 4)

	if r := c.CheckReport(start.Add(14*time.Minute), 15*time.Minute); r != nil {
		t.Error("expected nil report before interval")
	}

	r := c.CheckReport(start.Add(15*time.Minute), 15*time.Minute)
	if r == nil {
		t.Fatal("expected report at interval")
	}
	if r.Uptime != 15*time.Minute {
		t.Errorf("uptime: got %v, want 15m", r.Uptime)
	}
	if r.BPM != 64 || r.State != StatePanic {
		t.Errorf("report: got bpm=%d state=%s", r.BPM, r.State)
	}
	if r.Counts.Beats != 1 {
		t.Errorf("report beats: got %d, want 1", r.Counts.Beats)
	}

	if r := c.CheckReport(start.Add(20*time.Minute), 15*time.Minute); r != nil {
		t.Error("expected nil report before next interval")
	}
	if r := c.CheckReport(start.Add(30*time.Minute), 15*time.Minute); r == nil {
		t.Error("expected second report")
	}
}
