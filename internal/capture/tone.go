package capture

import (
	"context"
	"math"
	"time"

	"github.com/fakeyudi/voxrec/internal/recording"
)

// Tone is a synthetic capture service that records a slow sine sweep. It
// needs no audio hardware, which makes it useful for headless runs and demos.
type Tone struct {
	Codec     Codec
	Amplitude float64 // 0..1, default 0.3
	LowHz     float64 // default 220
	HighHz    float64 // default 880
	Period    time.Duration
}

// Open implements recording.CaptureService.
func (t *Tone) Open(ctx context.Context, cs recording.Constraints) (recording.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rate := SampleRateFor(t.Codec, cs.SampleRate)
	g := &sweep{
		rate:   float64(rate),
		amp:    orDefault(t.Amplitude, 0.3),
		low:    orDefault(t.LowHz, 220),
		high:   orDefault(t.HighHz, 880),
		period: t.Period,
	}
	if g.period <= 0 {
		g.period = 4 * time.Second
	}
	return newStream(NewEncoder(t.Codec, rate), cs.FragmentInterval, device{generate: g.next}), nil
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

// sweep generates a continuous-phase sine whose frequency rises from low to
// high once per period, then starts over.
type sweep struct {
	rate, amp, low, high float64
	period               time.Duration

	phase float64
	n     int64
}

func (g *sweep) next(d time.Duration) []int16 {
	count := int(g.rate * d.Seconds())
	out := make([]int16, count)
	periodSamples := g.rate * g.period.Seconds()
	for i := range out {
		pos := math.Mod(float64(g.n), periodSamples) / periodSamples
		freq := g.low + (g.high-g.low)*pos
		g.phase += 2 * math.Pi * freq / g.rate
		if g.phase > 2*math.Pi {
			g.phase -= 2 * math.Pi
		}
		out[i] = int16(g.amp * 32767 * math.Sin(g.phase))
		g.n++
	}
	return out
}
