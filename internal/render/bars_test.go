package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBarsDrawGeometry(t *testing.T) {
	c := NewCanvas(12, 128)
	DefaultBars().Draw(c, []byte{255, 0, 100, 2})

	// bar 0: x 0..1, height 127
	assert.Equal(t, DarkGrey, c.At(0, 127))
	assert.Equal(t, DarkGrey, c.At(1, 1))
	assert.Equal(t, LightGrey, c.At(1, 0))
	// gap column
	assert.Equal(t, LightGrey, c.At(2, 127))
	// bar 1 has zero height
	assert.Equal(t, LightGrey, c.At(3, 127))
	// bar 2: height 50
	assert.Equal(t, DarkGrey, c.At(6, 127))
	assert.Equal(t, DarkGrey, c.At(7, 78))
	assert.Equal(t, LightGrey, c.At(7, 77))
	// bar 3: height 1
	assert.Equal(t, DarkGrey, c.At(9, 127))
	assert.Equal(t, LightGrey, c.At(9, 126))
}

func TestBarsClipToSurface(t *testing.T) {
	c := NewCanvas(4, 10)
	assert.NotPanics(t, func() {
		DefaultBars().Draw(c, []byte{255, 255, 255, 255, 255})
	})
	assert.Equal(t, DarkGrey, c.At(3, 0))
}

func TestCanvasClear(t *testing.T) {
	c := NewCanvas(8, 8)
	c.FillRect(2, 2, 3, 3, DarkGrey)
	assert.False(t, c.Blank())
	c.Clear()
	assert.True(t, c.Blank())
}

func TestCanvasRender(t *testing.T) {
	c := NewCanvas(4, 4)
	c.FillRect(0, 0, 4, 4, LightGrey)
	c.FillRect(0, 2, 2, 2, DarkGrey)

	got := c.Render(2, 2)
	assert.Equal(t, "░░\n█░", got)
	assert.Equal(t, "", c.Render(0, 3))
}

// Feature: voxrec, Property 5: Bar height never exceeds the surface
func TestBarsStayInsideSurface(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 64).Draw(t, "w")
		h := rapid.IntRange(1, 64).Draw(t, "h")
		data := rapid.SliceOfN(rapid.Byte(), 0, 40).Draw(t, "data")

		c := NewCanvas(w, h)
		DefaultBars().Draw(c, data)

		out := c.Render(w, h)
		if n := strings.Count(out, "\n"); n != h-1 {
			t.Fatalf("expected %d rows, got %d", h, n+1)
		}
		for i, v := range data {
			x := i * 3
			if x >= w {
				break
			}
			want := min(int(float64(v)*0.5), h)
			dark := 0
			for y := 0; y < h; y++ {
				if c.At(x, y) == DarkGrey {
					dark++
				}
			}
			if dark != want {
				t.Fatalf("bar %d: expected %d dark pixels, got %d", i, want, dark)
			}
		}
	})
}
