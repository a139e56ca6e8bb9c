package render

import (
	"sync"
	"time"
)

// FrameID identifies one pending frame callback.
type FrameID uint64

// Scheduler runs a callback once on the next frame.
type Scheduler interface {
	RequestFrame(fn func()) FrameID
	// CancelFrame drops a pending callback. Unknown or already-fired IDs are
	// ignored.
	CancelFrame(id FrameID)
}

// TickerScheduler fires frames on timers spaced by a fixed interval.
type TickerScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]*time.Timer
}

// NewTickerScheduler returns a scheduler running at fps frames per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps < 1 {
		fps = 1
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		pending:  make(map[FrameID]*time.Timer),
	}
}

func (s *TickerScheduler) RequestFrame(fn func()) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := s.next
	s.pending[id] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if ok {
			fn()
		}
	})
	return id
}

func (s *TickerScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

// Pending returns the number of frames waiting to fire.
func (s *TickerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// ManualScheduler queues frames until Step is called. Headless runs and tests
// use it to advance the visualizer deterministically.
type ManualScheduler struct {
	mu      sync.Mutex
	next    FrameID
	pending []manualFrame
}

type manualFrame struct {
	id FrameID
	fn func()
}

func (s *ManualScheduler) RequestFrame(fn func()) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending = append(s.pending, manualFrame{id: s.next, fn: fn})
	return s.next
}

func (s *ManualScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.pending {
		if f.id == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// Step fires every frame queued before the call and returns how many ran.
// Frames requested by those callbacks wait for the next Step.
func (s *ManualScheduler) Step() int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range batch {
		f.fn()
	}
	return len(batch)
}

// Pending returns the number of queued frames.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Loop re-runs a frame function on every scheduled frame until stopped.
type Loop struct {
	sched Scheduler
	frame func()

	mu      sync.Mutex
	id      FrameID
	running bool
	frames  uint64
}

// StartLoop schedules frame on s and returns the handle that halts it.
func StartLoop(s Scheduler, frame func()) *Loop {
	l := &Loop{sched: s, frame: frame, running: true}
	l.mu.Lock()
	l.id = s.RequestFrame(l.tick)
	l.mu.Unlock()
	return l
}

func (l *Loop) tick() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.frames++
	l.mu.Unlock()

	l.frame()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		l.id = l.sched.RequestFrame(l.tick)
	}
}

// Stop cancels the pending frame. It is safe to call more than once and on a
// nil Loop.
func (l *Loop) Stop() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	l.sched.CancelFrame(l.id)
}

// Running reports whether the loop will fire again.
func (l *Loop) Running() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Frames returns how many frames have fired.
func (l *Loop) Frames() uint64 {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames
}
