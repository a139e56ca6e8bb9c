// Package render draws the live frequency visualizer and drives its
// per-frame loop.
package render

import (
	"strings"
	"sync"
)

// Color is a palette index understood by the rasteriser.
type Color uint8

const (
	Transparent Color = iota
	LightGrey
	DarkGrey
)

// Surface is a 2D drawing target with fixed pixel dimensions.
type Surface interface {
	Size() (w, h int)
	Clear()
	FillRect(x, y, w, h int, c Color)
}

// Canvas is an in-memory Surface. It is safe for concurrent use so the render
// loop can draw while the TUI rasterises.
type Canvas struct {
	mu     sync.RWMutex
	width  int
	height int
	pix    []Color
}

// NewCanvas returns a cleared canvas of the given pixel size.
func NewCanvas(width, height int) *Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Canvas{width: width, height: height, pix: make([]Color, width*height)}
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

// Clear resets every pixel to Transparent.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pix)
}

// FillRect paints the rectangle clipped to the canvas bounds.
func (c *Canvas) FillRect(x, y, w, h int, fill Color) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, c.width), min(y+h, c.height)
	if x0 >= x1 || y0 >= y1 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for row := y0; row < y1; row++ {
		off := row * c.width
		for px := x0; px < x1; px++ {
			c.pix[off+px] = fill
		}
	}
}

// At returns the color of a single pixel, Transparent when out of range.
func (c *Canvas) At(x, y int) Color {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return Transparent
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pix[y*c.width+x]
}

// Blank reports whether nothing has been drawn since the last Clear.
func (c *Canvas) Blank() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.pix {
		if p != Transparent {
			return false
		}
	}
	return true
}

// Render rasterises the canvas into cols x rows terminal cells. A cell shows
// the darkest color found in the block of pixels it covers.
func (c *Canvas) Render(cols, rows int) string {
	if cols < 1 || rows < 1 {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	for r := 0; r < rows; r++ {
		py0, py1 := r*c.height/rows, (r+1)*c.height/rows
		if py1 == py0 {
			py1 = py0 + 1
		}
		for col := 0; col < cols; col++ {
			px0, px1 := col*c.width/cols, (col+1)*c.width/cols
			if px1 == px0 {
				px1 = px0 + 1
			}
			sb.WriteRune(glyph(c.darkest(px0, py0, px1, py1)))
		}
		if r < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (c *Canvas) darkest(x0, y0, x1, y1 int) Color {
	var best Color
	for y := y0; y < y1 && y < c.height; y++ {
		for x := x0; x < x1 && x < c.width; x++ {
			if p := c.pix[y*c.width+x]; p > best {
				best = p
			}
		}
	}
	return best
}

func glyph(c Color) rune {
	switch c {
	case DarkGrey:
		return '█'
	case LightGrey:
		return '░'
	}
	return ' '
}
