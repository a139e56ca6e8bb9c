package render

// Bars draws one vertical bar per amplitude bucket, anchored to the bottom of
// the surface.
type Bars struct {
	Width int     // bar width in pixels
	Gap   int     // pixels between bars
	Scale float64 // pixel height per amplitude unit
}

// DefaultBars matches a 2px bar on a 3px stride at half amplitude height.
func DefaultBars() Bars {
	return Bars{Width: 2, Gap: 1, Scale: 0.5}
}

// Draw paints the background and the bars for data onto s.
func (b Bars) Draw(s Surface, data []byte) {
	w, h := s.Size()
	s.Clear()
	s.FillRect(0, 0, w, h, LightGrey)

	stride := b.Width + b.Gap
	if stride < 1 {
		stride = 1
	}
	for i, v := range data {
		x := i * stride
		if x >= w {
			break
		}
		bh := b.Height(v)
		if bh == 0 {
			continue
		}
		s.FillRect(x, h-bh, b.Width, bh, DarkGrey)
	}
}

// Height returns the bar height in pixels for amplitude v.
func (b Bars) Height(v byte) int {
	return int(float64(v) * b.Scale)
}
