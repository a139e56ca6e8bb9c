package recording_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fakeyudi/voxrec/internal/recording"
	"github.com/fakeyudi/voxrec/internal/render"
)

type fakeStream struct {
	mu       sync.Mutex
	sink     recording.Sink
	started  bool
	paused   bool
	stopped  bool
	closed   bool
	stopErr  error
	stopHook func(recording.Sink)
}

func (s *fakeStream) Start(sink recording.Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	s.started = true
	return nil
}

func (s *fakeStream) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *fakeStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	if s.stopErr != nil {
		err := s.stopErr
		s.mu.Unlock()
		return err
	}
	s.stopped = true
	hook, sink := s.stopHook, s.sink
	s.mu.Unlock()
	if hook != nil {
		hook(sink)
	}
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) MIMEType() string { return "audio/wav" }

// deliver simulates the platform handing over one fragment.
func (s *fakeStream) deliver(data ...byte) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	sink.Fragment(data)
}

// finalize simulates the platform's finalize notification.
func (s *fakeStream) finalize() {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	sink.Finalized(nil)
}

type fakeCapture struct {
	mu      sync.Mutex
	opens   int
	streams []*fakeStream
	err     error
}

func (c *fakeCapture) Open(ctx context.Context, cs recording.Constraints) (recording.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opens++
	if c.err != nil {
		return nil, c.err
	}
	s := &fakeStream{}
	c.streams = append(c.streams, s)
	return s, nil
}

func (c *fakeCapture) last() *fakeStream {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streams[len(c.streams)-1]
}

type fakeAnalyser struct {
	bins   []byte
	closed bool
}

func (a *fakeAnalyser) FrequencyBinCount() int        { return len(a.bins) }
func (a *fakeAnalyser) ByteFrequencyData(dst []byte) { copy(dst, a.bins) }
func (a *fakeAnalyser) Close() error                 { a.closed = true; return nil }

type fakeAnalysis struct{ bins []byte }

func (f *fakeAnalysis) Attach(recording.Stream) (recording.Analyser, error) {
	return &fakeAnalyser{bins: f.bins}, nil
}

type download struct {
	name string
	data []byte
}

type fakeDownloader struct {
	mu        sync.Mutex
	downloads []download
}

func (d *fakeDownloader) Download(ctx context.Context, data []byte, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downloads = append(d.downloads, download{name: name, data: data})
	return nil
}

type fakePlayer struct {
	loaded *recording.Artifact
}

func (p *fakePlayer) Load(a *recording.Artifact) error { p.loaded = a; return nil }
func (p *fakePlayer) Clear()                           { p.loaded = nil }

type harness struct {
	ctrl     *recording.Controller
	capture  *fakeCapture
	sched    *render.ManualScheduler
	canvas   *render.Canvas
	download *fakeDownloader
	player   *fakePlayer
}

func newHarness(t testing.TB, opts ...recording.Option) *harness {
	t.Helper()
	h := &harness{
		capture:  &fakeCapture{},
		sched:    &render.ManualScheduler{},
		canvas:   render.NewCanvas(24, 16),
		download: &fakeDownloader{},
		player:   &fakePlayer{},
	}
	ctrl, err := recording.New(recording.Deps{
		Capture:    h.capture,
		Analysis:   &fakeAnalysis{bins: []byte{255, 128, 64, 32, 16, 8, 4, 0}},
		Surface:    h.canvas,
		Scheduler:  h.sched,
		Downloader: h.download,
		Player:     h.player,
	}, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.ctrl = ctrl
	return h
}

func (h *harness) start(t testing.TB) *fakeStream {
	t.Helper()
	if err := h.ctrl.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return h.capture.last()
}

var errDenied = errors.New("user dismissed the prompt")
