// Package display models the 5x5 brightness matrix the heart is drawn on.
// Backends (in-memory grid, terminal) implement Surface; the fade and show
// helpers here work against any of them.
package display

import (
	"fmt"
	"strings"
)

// Matrix dimensions.
const (
	Width  = 5
	Height = 5
)

// Brightness levels. 0 is "off" and is distinct from MinBrightness.
const (
	Off           = 0
	MinBrightness = 1
	MaxBrightness = 9
)

// Surface is a fixed Width x Height grid of brightness cells.
type Surface interface {
	// Pixel returns the brightness at (col, row), 0 for out-of-range cells.
	Pixel(col, row int) int

	// SetPixel sets the brightness at (col, row). Values are clamped to
	// [Off, MaxBrightness]; out-of-range cells are ignored.
	SetPixel(col, row, brightness int)
}

// Updater is implemented by surfaces that can do an atomic read-modify-write
// of a single cell.
type Updater interface {
	UpdatePixel(col, row int, fn func(brightness int) int)
}

// Flusher is implemented by surfaces that buffer writes and need an explicit
// push to the physical output (e.g. a terminal redraw).
type Flusher interface {
	Flush()
}

// Clamp returns the nearest value to n within [lo, hi] inclusive.
// It panics if lo > hi.
func Clamp(lo, n, hi int) int {
	if lo > hi {
		panic(fmt.Sprintf("display: clamp bounds inverted (%d > %d)", lo, hi))
	}
	return max(lo, min(n, hi))
}

// Image is a Width x Height bitmap indexed [row][col].
type Image [Height][Width]int

// Built-in images, in the same row notation ParseImage accepts.
var (
	Heart      = MustParseImage("09090:99999:99999:09990:00900")
	HeartSmall = MustParseImage("00000:09090:09990:00900:00000")
)

// ParseImage parses the colon-separated row notation used by LED matrix
// boards, e.g. "09090:99999:99999:09990:00900". Each row must have exactly
// Width digits.
func ParseImage(s string) (Image, error) {
	var img Image
	rows := strings.Split(strings.TrimSuffix(s, ":"), ":")
	if len(rows) != Height {
		return img, fmt.Errorf("image: want %d rows, got %d", Height, len(rows))
	}
	for r, line := range rows {
		if len(line) != Width {
			return img, fmt.Errorf("image: row %d: want %d columns, got %d", r, Width, len(line))
		}
		for c, ch := range line {
			if ch < '0' || ch > '9' {
				return img, fmt.Errorf("image: row %d col %d: invalid brightness %q", r, c, ch)
			}
			img[r][c] = int(ch - '0')
		}
	}
	return img, nil
}

// MustParseImage is ParseImage that panics on error. Intended for package-level
// image literals.
func MustParseImage(s string) Image {
	img, err := ParseImage(s)
	if err != nil {
		panic(err)
	}
	return img
}

// String renders the image in row notation.
func (img Image) String() string {
	var b strings.Builder
	for r := 0; r < Height; r++ {
		if r > 0 {
			b.WriteByte(':')
		}
		for c := 0; c < Width; c++ {
			b.WriteByte(byte('0' + img[r][c]))
		}
	}
	return b.String()
}

// Show copies img onto s and flushes it if the surface buffers writes.
func Show(s Surface, img Image) {
	for row := 0; row < Height; row++ {
		for col := 0; col < Width; col++ {
			s.SetPixel(col, row, img[row][col])
		}
	}
	if f, ok := s.(Flusher); ok {
		f.Flush()
	}
}

// Fade changes every lit pixel by delta, keeping the result within
// [MinBrightness, MaxBrightness]. Pixels that are off stay off.
func Fade(s Surface, delta int) {
	step := func(b int) int {
		if b == Off {
			return Off
		}
		return Clamp(MinBrightness, b+delta, MaxBrightness)
	}

	u, atomic := s.(Updater)
	for col := 0; col < Width; col++ {
		for row := 0; row < Height; row++ {
			if atomic {
				u.UpdatePixel(col, row, step)
				continue
			}
			s.SetPixel(col, row, step(s.Pixel(col, row)))
		}
	}

	if f, ok := s.(Flusher); ok {
		f.Flush()
	}
}
