// Package term renders the heart in a terminal and turns the keyboard into a
// stimulus board. It stands in for the LED matrix, buttons, pads and
// accelerometer when no hardware is attached.
package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/beating-heart/internal/display"
	"github.com/sweeney/beating-heart/internal/input"
)

// Pad channels served by ReadAnalog.
const (
	Pad1Channel = 1
	Pad2Channel = 2
)

// Raw analog values reported for a touched and an untouched pad.
const (
	padTouched   = 1023
	padUntouched = 0
)

// Screen layout: each LED is two cells wide with a one-cell gap.
const (
	originX  = 2
	originY  = 1
	cellStep = 3
)

// Help is the key legend drawn under the matrix.
const Help = "a/b buttons  1/2 pads  s shake  f freefall  d face down  q quit"

// Display is a tcell-backed display.Surface that also implements the
// input.ButtonReader, input.AnalogReader and input.GestureReader interfaces.
//
// Key presses are latched until the next read, so a tap between two samples
// is never lost.
type Display struct {
	screen tcell.Screen
	grid   *display.Grid

	mu      sync.Mutex
	latched map[input.Source]bool
	gesture input.Gesture
	caption string

	quit     chan struct{}
	quitOnce sync.Once
	finiOnce sync.Once
	polled   chan struct{}
}

// New opens the controlling terminal and starts reading keys.
func New() (*Display, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	return NewWithScreen(screen), nil
}

// NewWithScreen wraps an already initialised screen. Used with
// tcell.NewSimulationScreen in tests.
func NewWithScreen(screen tcell.Screen) *Display {
	d := &Display{
		screen:  screen,
		grid:    display.NewGrid(),
		latched: make(map[input.Source]bool),
		gesture: input.GestureNone,
		quit:    make(chan struct{}),
		polled:  make(chan struct{}),
	}
	screen.HideCursor()
	go d.poll()
	d.Flush()
	return d
}

// poll runs until the screen is finalised.
func (d *Display) poll() {
	defer close(d.polled)
	for {
		ev := d.screen.PollEvent()
		if ev == nil {
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			d.handleKey(ev)
		case *tcell.EventResize:
			d.screen.Sync()
			d.Flush()
		}
	}
}

func (d *Display) handleKey(ev *tcell.EventKey) {
	act := keyAction(ev)
	switch {
	case act.quit:
		d.quitOnce.Do(func() { close(d.quit) })
	case act.source != "":
		d.mu.Lock()
		d.latched[act.source] = true
		d.mu.Unlock()
	case act.gesture != input.GestureNone:
		d.mu.Lock()
		d.gesture = act.gesture
		d.mu.Unlock()
	}
}

// action is what a single key press does.
type action struct {
	source  input.Source
	gesture input.Gesture
	quit    bool
}

// keyAction maps a key event to its action. Unbound keys do nothing.
func keyAction(ev *tcell.EventKey) action {
	none := action{gesture: input.GestureNone}
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return action{gesture: input.GestureNone, quit: true}
	case tcell.KeyRune:
	default:
		return none
	}

	switch ev.Rune() {
	case 'q', 'Q':
		return action{gesture: input.GestureNone, quit: true}
	case 'a', 'A':
		return action{source: input.ButtonA, gesture: input.GestureNone}
	case 'b', 'B':
		return action{source: input.ButtonB, gesture: input.GestureNone}
	case '1':
		return action{source: input.Pad1, gesture: input.GestureNone}
	case '2':
		return action{source: input.Pad2, gesture: input.GestureNone}
	case 's', 'S':
		return action{gesture: input.GestureShake}
	case 'f', 'F':
		return action{gesture: input.GestureFreefall}
	case 'd', 'D':
		return action{gesture: input.GestureFaceDown}
	}
	return none
}

// take reports and clears a latched source.
func (d *Display) take(src input.Source) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pressed := d.latched[src]
	delete(d.latched, src)
	return pressed
}

// Read reports whether a or b was pressed since the last call.
func (d *Display) Read() (aPressed, bPressed bool, err error) {
	return d.take(input.ButtonA), d.take(input.ButtonB), nil
}

// ReadAnalog reports a full-scale reading on a pad channel if its key was
// pressed since the last read of that channel.
func (d *Display) ReadAnalog(channel int) (int, error) {
	var src input.Source
	switch channel {
	case Pad1Channel:
		src = input.Pad1
	case Pad2Channel:
		src = input.Pad2
	default:
		return 0, fmt.Errorf("term: no pad on channel %d", channel)
	}
	if d.take(src) {
		return padTouched, nil
	}
	return padUntouched, nil
}

// CurrentGesture returns the last gesture key pressed since the previous
// call, or GestureNone.
func (d *Display) CurrentGesture() input.Gesture {
	d.mu.Lock()
	defer d.mu.Unlock()
	g := d.gesture
	d.gesture = input.GestureNone
	return g
}

// Quit is closed when the quit key is pressed.
func (d *Display) Quit() <-chan struct{} {
	return d.quit
}

// Pixel returns the brightness at (col, row).
func (d *Display) Pixel(col, row int) int {
	return d.grid.Pixel(col, row)
}

// SetPixel sets the brightness at (col, row). Call Flush to redraw.
func (d *Display) SetPixel(col, row, brightness int) {
	d.grid.SetPixel(col, row, brightness)
}

// UpdatePixel applies fn to the cell at (col, row) atomically.
func (d *Display) UpdatePixel(col, row int, fn func(int) int) {
	d.grid.UpdatePixel(col, row, fn)
}

// Frame returns a copy of the current contents.
func (d *Display) Frame() display.Image {
	return d.grid.Frame()
}

// SetCaption sets the status line drawn under the matrix on the next Flush.
func (d *Display) SetCaption(caption string) {
	d.mu.Lock()
	d.caption = caption
	d.mu.Unlock()
}

// Flush redraws the matrix, caption and key legend.
func (d *Display) Flush() {
	frame := d.grid.Frame()
	d.mu.Lock()
	caption := d.caption
	d.mu.Unlock()

	d.screen.Clear()
	for row := 0; row < display.Height; row++ {
		for col := 0; col < display.Width; col++ {
			x := originX + col*cellStep
			y := originY + row
			glyph, style := ledCell(frame[row][col])
			d.screen.SetContent(x, y, glyph, nil, style)
			d.screen.SetContent(x+1, y, glyph, nil, style)
		}
	}

	textY := originY + display.Height + 1
	drawText(d.screen, originX, textY, caption, tcell.StyleDefault.Bold(true))
	drawText(d.screen, originX, textY+1, Help, tcell.StyleDefault.Foreground(tcell.ColorGray))
	d.screen.Show()
}

// ledCell returns the glyph and style for one LED at brightness b.
func ledCell(b int) (rune, tcell.Style) {
	if b <= display.Off {
		return '·', tcell.StyleDefault.Foreground(tcell.NewRGBColor(60, 60, 60))
	}
	red := int32(60 + b*195/display.MaxBrightness)
	return '█', tcell.StyleDefault.Foreground(tcell.NewRGBColor(red, 0, 0))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}

// Close restores the terminal. It is safe to call more than once.
func (d *Display) Close() error {
	d.finiOnce.Do(func() {
		d.screen.Fini()
		<-d.polled
	})
	return nil
}
