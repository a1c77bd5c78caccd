package display

import "sync"

// Grid is an in-memory Surface. It is safe for concurrent use; each cell
// update is atomic.
type Grid struct {
	mu    sync.Mutex
	cells Image
}

// NewGrid returns a Grid with every pixel off.
func NewGrid() *Grid {
	return &Grid{}
}

func inBounds(col, row int) bool {
	return col >= 0 && col < Width && row >= 0 && row < Height
}

// Pixel returns the brightness at (col, row).
func (g *Grid) Pixel(col, row int) int {
	if !inBounds(col, row) {
		return Off
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cells[row][col]
}

// SetPixel sets the brightness at (col, row), clamped to [Off, MaxBrightness].
func (g *Grid) SetPixel(col, row, brightness int) {
	if !inBounds(col, row) {
		return
	}
	g.mu.Lock()
	g.cells[row][col] = Clamp(Off, brightness, MaxBrightness)
	g.mu.Unlock()
}

// UpdatePixel applies fn to the cell at (col, row) under the grid lock.
func (g *Grid) UpdatePixel(col, row int, fn func(int) int) {
	if !inBounds(col, row) {
		return
	}
	g.mu.Lock()
	g.cells[row][col] = Clamp(Off, fn(g.cells[row][col]), MaxBrightness)
	g.mu.Unlock()
}

// Frame returns a copy of the current contents.
func (g *Grid) Frame() Image {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cells
}
