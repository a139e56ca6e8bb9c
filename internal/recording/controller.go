// Package recording coordinates the recording lifecycle: capture, live
// visualization, finalizing fragments into an artifact, and saving it.
package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakeyudi/voxrec/internal/render"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("recording controller closed")

// Deps are the platform collaborators a Controller drives. Player may be nil.
type Deps struct {
	Capture    CaptureService
	Analysis   AnalysisService
	Surface    render.Surface
	Scheduler  render.Scheduler
	Downloader Downloader
	Player     Player
}

// Status is a point-in-time view of the controller for the UI.
type Status struct {
	State     State
	Controls  Controls
	SessionID string
	Fragments int
	Bytes     int
	Elapsed   time.Duration
	Artifact  *Artifact
	// Err is the last error reported asynchronously by a stream.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithConstraints sets the capture constraints used by every Start.
func WithConstraints(cs Constraints) Option {
	return func(c *Controller) { c.constraints = cs }
}

// WithBars sets the visualizer bar geometry.
func WithBars(b render.Bars) Option {
	return func(c *Controller) { c.bars = b }
}

// WithObserver registers fn to be called after every state change. fn runs
// outside the controller lock and may call back into the controller.
func WithObserver(fn func(Status)) Option {
	return func(c *Controller) { c.observers = append(c.observers, fn) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller owns at most one recording session and the artifact it produced.
type Controller struct {
	deps        Deps
	log         *zap.SugaredLogger
	constraints Constraints
	observers   []func(Status)
	now         func() time.Time

	mu       sync.Mutex
	bars     render.Bars
	state    State
	session  *Session
	artifact *Artifact
	lastErr  error
	closed   bool
}

// New creates a controller. Call Close to dispose of it.
func New(deps Deps, opts ...Option) (*Controller, error) {
	switch {
	case deps.Capture == nil:
		return nil, errors.New("recording: capture service is required")
	case deps.Analysis == nil:
		return nil, errors.New("recording: analysis service is required")
	case deps.Surface == nil:
		return nil, errors.New("recording: surface is required")
	case deps.Scheduler == nil:
		return nil, errors.New("recording: frame scheduler is required")
	case deps.Downloader == nil:
		return nil, errors.New("recording: downloader is required")
	}
	if deps.Player == nil {
		deps.Player = nopPlayer{}
	}
	c := &Controller{
		deps: deps,
		log:  zap.NewNop().Sugar(),
		bars: render.DefaultBars(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start opens a capture session and begins visualizing it.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state.Active() {
		id, state := c.session.ID, c.state
		c.mu.Unlock()
		c.log.Debugw("start rejected", "session", id, "state", state.String())
		return ErrSessionActive
	}

	stream, err := c.deps.Capture.Open(ctx, c.constraints)
	if err != nil {
		c.mu.Unlock()
		c.log.Warnw("capture open failed", "error", err)
		return fmt.Errorf("open capture: %w", err)
	}
	analyser, err := c.deps.Analysis.Attach(stream)
	if err != nil {
		c.mu.Unlock()
		_ = stream.Close()
		return fmt.Errorf("attach analyser: %w", err)
	}

	now := c.now()
	s := &Session{
		ID:        uuid.New().String(),
		StartTime: now,
		resumedAt: now,
		stream:    stream,
		analyser:  analyser,
		bins:      make([]byte, analyser.FrequencyBinCount()),
	}
	if err := stream.Start(&sessionSink{c: c, id: s.ID}); err != nil {
		c.mu.Unlock()
		_ = analyser.Close()
		_ = stream.Close()
		return fmt.Errorf("start capture: %w", err)
	}

	c.artifact = nil
	c.lastErr = nil
	c.deps.Player.Clear()
	c.session = s
	c.state = StateRecording
	s.loop = c.startLoopLocked(s)
	st := c.statusLocked()
	c.mu.Unlock()

	c.log.Infow("recording started", "session", s.ID, "mime", stream.MIMEType())
	c.notify(st)
	return nil
}

// TogglePause pauses a recording session, or resumes a paused one.
func (c *Controller) TogglePause() error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	s := c.session
	switch c.state {
	case StateRecording:
		if err := s.stream.Pause(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("pause capture: %w", err)
		}
		s.loop.Stop()
		s.loop = nil
		s.paused = true
		s.elapsed += c.now().Sub(s.resumedAt)
		c.state = StatePaused
	case StatePaused:
		if err := s.stream.Resume(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("resume capture: %w", err)
		}
		s.paused = false
		s.resumedAt = c.now()
		s.loop = c.startLoopLocked(s)
		c.state = StateRecording
	default:
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	st := c.statusLocked()
	c.mu.Unlock()

	c.log.Infow("recording "+st.State.String(), "session", s.ID, "fragments", st.Fragments)
	c.notify(st)
	return nil
}

// Stop asks the stream to finalize. The artifact appears once the stream
// reports that it has delivered its last fragment.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != StateRecording && c.state != StatePaused {
		c.mu.Unlock()
		return ErrNoActiveSession
	}
	s := c.session
	prev := c.state
	s.loop.Stop()
	s.loop = nil
	if prev == StateRecording {
		s.elapsed += c.now().Sub(s.resumedAt)
	}
	c.state = StateFinalizing
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)

	// The stream may finalize synchronously, so it is signalled unlocked.
	if err := s.stream.Stop(); err != nil {
		c.revertStop(s, prev)
		return fmt.Errorf("stop capture: %w", err)
	}
	c.log.Debugw("recording finalizing", "session", s.ID)
	return nil
}

func (c *Controller) revertStop(s *Session, prev State) {
	c.mu.Lock()
	if c.session != s || c.state != StateFinalizing {
		c.mu.Unlock()
		return
	}
	c.state = prev
	if prev == StateRecording {
		s.resumedAt = c.now()
		s.loop = c.startLoopLocked(s)
	}
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
}

// Cancel discards the session, if any, and any finished artifact. It is valid
// in every state.
func (c *Controller) Cancel() {
	c.mu.Lock()
	s := c.session
	if s != nil {
		s.loop.Stop()
		s.loop = nil
		s.reset()
	}
	c.session = nil
	c.artifact = nil
	c.lastErr = nil
	c.state = StateIdle
	c.deps.Player.Clear()
	c.deps.Surface.Clear()
	st := c.statusLocked()
	c.mu.Unlock()

	if s != nil {
		c.releaseStream(s)
		c.log.Infow("recording cancelled", "session", s.ID)
	}
	c.notify(st)
}

// Save downloads the finished recording under ArtifactFileName.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	a := c.artifact
	c.mu.Unlock()
	if a == nil {
		return ErrNoArtifact
	}
	if err := c.deps.Downloader.Download(ctx, a.Bytes(), ArtifactFileName); err != nil {
		return fmt.Errorf("save recording: %w", err)
	}
	c.log.Infow("recording saved", "session", a.SessionID, "bytes", a.Len(), "name", ArtifactFileName)
	return nil
}

// Close cancels any session and disposes of the controller. Safe to call more
// than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	c.Cancel()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Status returns the current controller view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// Artifact returns the finished recording, or nil.
func (c *Controller) Artifact() *Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// SetBars swaps the visualizer geometry; the next frame uses it.
func (c *Controller) SetBars(b render.Bars) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bars = b
}

func (c *Controller) checkOpenLocked() error {
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Controller) startLoopLocked(s *Session) *render.Loop {
	return render.StartLoop(c.deps.Scheduler, func() { c.renderFrame(s) })
}

// renderFrame draws one visualizer frame for s. Frames that outlive their
// session or arrive after a pause draw nothing.
func (c *Controller) renderFrame(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != s || c.state != StateRecording {
		return
	}
	s.analyser.ByteFrequencyData(s.bins)
	c.bars.Draw(c.deps.Surface, s.bins)
}

func (c *Controller) onFragment(id string, data []byte) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.ID != id {
		c.mu.Unlock()
		c.log.Debugw("dropped stale fragment", "session", id, "bytes", len(data))
		return
	}
	s.appendFragment(data)
	st := c.statusLocked()
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) onFinalized(id string, err error) {
	c.mu.Lock()
	s := c.session
	if s == nil || s.ID != id {
		c.mu.Unlock()
		c.log.Debugw("dropped stale finalize", "session", id)
		return
	}
	// The stream may end by itself, e.g. when the device goes away.
	s.loop.Stop()
	s.loop = nil
	if c.state == StateRecording {
		s.elapsed += c.now().Sub(s.resumedAt)
	}

	a := NewArtifact(s.ID, s.stream.MIMEType(), s.assemble())
	a.Duration = s.elapsed
	fragments := len(s.fragments)
	s.reset()
	c.session = nil
	c.artifact = a
	c.lastErr = err
	c.state = StateStopped
	if perr := c.deps.Player.Load(a); perr != nil {
		c.log.Warnw("playback load failed", "session", s.ID, "error", perr)
	}
	st := c.statusLocked()
	c.mu.Unlock()

	_ = s.analyser.Close()
	if err != nil {
		c.log.Warnw("recording finalized with error", "session", s.ID, "error", err)
	}
	c.log.Infow("recording stopped",
		"session", s.ID,
		"fragments", fragments,
		"bytes", a.Len(),
		"duration", a.Duration.Round(time.Millisecond).String(),
	)
	c.notify(st)
}

// releaseStream shuts a discarded session's stream down. Its late callbacks
// are dropped by the session check.
func (c *Controller) releaseStream(s *Session) {
	if err := s.stream.Stop(); err != nil {
		c.log.Debugw("stream stop on release", "session", s.ID, "error", err)
	}
	if err := s.stream.Close(); err != nil {
		c.log.Debugw("stream close on release", "session", s.ID, "error", err)
	}
	_ = s.analyser.Close()
}

func (c *Controller) statusLocked() Status {
	st := Status{
		State:    c.state,
		Controls: c.state.Controls(),
		Artifact: c.artifact,
		Err:      c.lastErr,
	}
	if s := c.session; s != nil {
		st.SessionID = s.ID
		st.Fragments = len(s.fragments)
		st.Bytes = s.size
		st.Elapsed = s.elapsed
		if c.state == StateRecording {
			st.Elapsed += c.now().Sub(s.resumedAt)
		}
	} else if c.artifact != nil {
		st.SessionID = c.artifact.SessionID
		st.Bytes = c.artifact.Len()
		st.Elapsed = c.artifact.Duration
	}
	return st
}

func (c *Controller) notify(st Status) {
	for _, fn := range c.observers {
		fn(st)
	}
}

// sessionSink routes stream callbacks to the controller tagged with the
// session they belong to.
type sessionSink struct {
	c  *Controller
	id string
}

func (k *sessionSink) Fragment(data []byte) { k.c.onFragment(k.id, data) }
func (k *sessionSink) Finalized(err error)  { k.c.onFinalized(k.id, err) }

type nopPlayer struct{}

func (nopPlayer) Load(*Artifact) error { return nil }
func (nopPlayer) Clear()               {}
