// Package analysis turns live capture samples into a byte frequency spectrum
// for the visualizer.
package analysis

import (
	"errors"
	"math"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/fakeyudi/voxrec/internal/recording"
)

// ErrNoMonitor is returned by Attach for streams that do not expose samples.
var ErrNoMonitor = errors.New("stream does not expose a sample monitor")

// Monitor is implemented by capture streams that can share their raw PCM.
// The returned function stops the callbacks.
type Monitor interface {
	Monitor(fn func(samples []int16)) (cancel func())
}

const (
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// Service attaches analysers to capture streams.
type Service struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// NewService returns a service with the given FFT size and default scaling.
func NewService(fftSize int) *Service {
	return &Service{
		FFTSize:     fftSize,
		Smoothing:   DefaultSmoothing,
		MinDecibels: DefaultMinDecibels,
		MaxDecibels: DefaultMaxDecibels,
	}
}

// Attach implements recording.AnalysisService.
func (s *Service) Attach(st recording.Stream) (recording.Analyser, error) {
	m, ok := st.(Monitor)
	if !ok {
		return nil, ErrNoMonitor
	}
	a := NewAnalyser(s.FFTSize)
	a.smoothing = s.Smoothing
	a.minDB, a.maxDB = s.MinDecibels, s.MaxDecibels
	a.cancel = m.Monitor(a.Push)
	return a, nil
}

// Analyser keeps the most recent FFTSize samples and computes a smoothed
// magnitude spectrum scaled to bytes on demand.
type Analyser struct {
	smoothing    float64
	minDB, maxDB float64
	cancel       func()

	mu       sync.Mutex
	fft      *fourier.FFT
	ring     []float64
	pos      int
	work     []float64
	coeffs   []complex128
	smoothed []float64
}

// NewAnalyser returns an unattached analyser. fftSize must be a power of two
// of at least 32; other values are rounded to the default.
func NewAnalyser(fftSize int) *Analyser {
	if fftSize < 32 || fftSize&(fftSize-1) != 0 {
		fftSize = DefaultFFTSize
	}
	return &Analyser{
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDecibels,
		maxDB:     DefaultMaxDecibels,
		fft:       fourier.NewFFT(fftSize),
		ring:      make([]float64, fftSize),
		work:      make([]float64, fftSize),
		smoothed:  make([]float64, fftSize/2),
	}
}

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return len(a.ring) / 2 }

// Push appends PCM samples to the analysis window.
func (a *Analyser) Push(samples []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := len(a.ring)
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	for _, v := range samples {
		a.ring[a.pos] = float64(v) / 32768
		a.pos = (a.pos + 1) % n
	}
}

// ByteFrequencyData writes the current spectrum into dst, one byte per bin.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(a.ring)
	copy(a.work, a.ring[a.pos:])
	copy(a.work[n-a.pos:], a.ring[:a.pos])
	window.Blackman(a.work)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.work)

	span := a.maxDB - a.minDB
	for k := range a.smoothed {
		mag := math.Hypot(real(a.coeffs[k]), imag(a.coeffs[k])) / float64(n)
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if k >= len(dst) {
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		switch {
		case math.IsInf(db, -1) || db <= a.minDB:
			dst[k] = 0
		case db >= a.maxDB:
			dst[k] = 255
		default:
			dst[k] = byte(255 * (db - a.minDB) / span)
		}
	}
}

// Close detaches the analyser from its stream.
func (a *Analyser) Close() error {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	return nil
}
