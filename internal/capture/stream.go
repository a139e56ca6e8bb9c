package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/fakeyudi/voxrec/internal/recording"
)

// ErrStopped is returned when a stopped stream is asked to start, pause or resume.
var ErrStopped = errors.New("capture stream stopped")

// DefaultFragmentInterval is how often buffered audio is handed to the sink.
const DefaultFragmentInterval = 250 * time.Millisecond

// device is the audio source behind a stream.
type device struct {
	start   func() error
	pause   func() error
	resume  func() error
	release func()
	// generate, when set, is polled once per interval for new samples.
	generate func(d time.Duration) []int16
}

// stream buffers samples from a device and emits encoded fragments on its own
// goroutine every interval.
type stream struct {
	enc      *Encoder
	interval time.Duration
	dev      device

	mu       sync.Mutex
	sink     recording.Sink
	pending  []int16
	paused   bool
	started  bool
	stopped  bool
	monitors map[int]func([]int16)
	nextMon  int

	stopCh      chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	releaseOnce sync.Once
}

func newStream(enc *Encoder, interval time.Duration, dev device) *stream {
	if interval <= 0 {
		interval = DefaultFragmentInterval
	}
	return &stream{
		enc:      enc,
		interval: interval,
		dev:      dev,
		monitors: make(map[int]func([]int16)),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *stream) MIMEType() string { return MIMEType }

func (s *stream) Start(sink recording.Sink) error {
	s.mu.Lock()
	if s.stopped || s.started {
		s.mu.Unlock()
		return ErrStopped
	}
	s.sink = sink
	s.mu.Unlock()

	if s.dev.start != nil {
		if err := s.dev.start(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go s.run()
	return nil
}

func (s *stream) Pause() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.paused = true
	s.mu.Unlock()
	if s.dev.pause != nil {
		return s.dev.pause()
	}
	return nil
}

func (s *stream) Resume() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.paused = false
	s.mu.Unlock()
	if s.dev.resume != nil {
		return s.dev.resume()
	}
	return nil
}

// Stop ends capture. A started stream flushes, reports Finalized and releases
// its device from the emitter goroutine.
func (s *stream) Stop() error {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		started := s.started
		s.mu.Unlock()
		if !started {
			s.release()
			return
		}
		close(s.stopCh)
	})
	return nil
}

// Close stops the stream and waits for the emitter to exit.
func (s *stream) Close() error {
	_ = s.Stop()
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
	s.release()
	return nil
}

// Monitor registers fn to receive every captured sample block.
func (s *stream) Monitor(fn func([]int16)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextMon
	s.nextMon++
	s.monitors[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.monitors, id)
	}
}

// write accepts samples from the device. Samples arriving while paused or
// after stop are dropped.
func (s *stream) write(samples []int16) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	if s.paused || s.stopped {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, samples...)
	mons := make([]func([]int16), 0, len(s.monitors))
	for _, fn := range s.monitors {
		mons = append(mons, fn)
	}
	s.mu.Unlock()
	for _, fn := range mons {
		fn(samples)
	}
}

func (s *stream) run() {
	defer close(s.done)
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if s.dev.generate != nil && !s.isPaused() {
				s.write(s.dev.generate(s.interval))
			}
			s.flush(false)
		case <-s.stopCh:
			s.flush(true)
			s.sink.Finalized(nil)
			s.release()
			return
		}
	}
}

func (s *stream) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// flush encodes and delivers buffered samples. The final flush always emits at
// least the WAV header so an empty recording is still a valid file.
func (s *stream) flush(final bool) {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if len(batch) == 0 && !(final && !s.enc.HeaderSent()) {
		return
	}
	s.sink.Fragment(s.enc.Encode(batch))
}

func (s *stream) release() {
	s.releaseOnce.Do(func() {
		if s.dev.release != nil {
			s.dev.release()
		}
	})
}
