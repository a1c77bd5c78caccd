// Package animate renders heartbeat animations onto a display surface.
// All pauses go through a Sleeper so tests can run without real time passing.
package animate

import (
	"time"

	"github.com/sweeney/beating-heart/internal/display"
)

// Steps is the number of timed fade steps in one beat.
const Steps = display.MaxBrightness - display.MinBrightness

// FlatlinePause is the pause between steps of the flatline animation.
const FlatlinePause = 300 * time.Millisecond

// splash is how far the primed heart is dimmed before the first beat.
const splash = 2

// Sleeper blocks for the given duration.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(time.Duration)

// Sleep calls f(d).
func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// RealSleeper sleeps on the wall clock.
var RealSleeper Sleeper = SleeperFunc(time.Sleep)

// Renderer draws beats on a surface.
type Renderer struct {
	surface display.Surface
	sleeper Sleeper
}

// NewRenderer creates a Renderer drawing on s and pausing with sleeper.
func NewRenderer(s display.Surface, sleeper Sleeper) *Renderer {
	return &Renderer{surface: s, sleeper: sleeper}
}

// Prime shows the heart image and dims it by one beat splash.
func (r *Renderer) Prime() {
	display.Show(r.surface, display.Heart)
	display.Fade(r.surface, -splash)
}

// Beat renders one heartbeat intended to last delayMs milliseconds and
// returns the milliseconds actually spent pausing.
//
// The lit pixels flash to full brightness, then dim one level per step with
// a pause of delayMs/Steps (floored) after each. When delayMs < Steps the
// pause truncates to zero and so does the returned spend.
func (r *Renderer) Beat(delayMs int) int {
	stepMs := max(delayMs, 0) / Steps
	spend := 0

	display.Fade(r.surface, display.MaxBrightness)
	for i := 0; i < Steps; i++ {
		display.Fade(r.surface, -1)
		r.sleeper.Sleep(time.Duration(stepMs) * time.Millisecond)
		spend += stepMs
	}

	return spend
}

// Flatline flashes the heart and lets it fade out slowly. The fade floors at
// MinBrightness, so the heart is left dim rather than dark.
func (r *Renderer) Flatline() {
	display.Fade(r.surface, display.MaxBrightness)
	for i := 0; i < display.MaxBrightness; i++ {
		display.Fade(r.surface, -1)
		r.sleeper.Sleep(FlatlinePause)
	}
}
