package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	"go.uber.org/zap"

	"github.com/fakeyudi/voxrec/internal/recording"
)

// ErrNothingLoaded is returned by Play when no artifact has been loaded.
var ErrNothingLoaded = errors.New("nothing to play")

// Output renders mono samples to an audio device, blocking until done or ctx
// is cancelled.
type Output interface {
	Play(ctx context.Context, rate int, samples []int16) error
}

// Player holds the most recent artifact and plays it on demand. It satisfies
// recording.Player.
type Player struct {
	out Output
	log *zap.SugaredLogger

	mu     sync.Mutex
	audio  *Audio
	cancel context.CancelFunc
}

// NewPlayer returns a Player that renders through out.
func NewPlayer(out Output, log *zap.SugaredLogger) *Player {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Player{out: out, log: log}
}

// Load decodes a and makes it the current source, stopping any playback of
// the previous one.
func (p *Player) Load(a *recording.Artifact) error {
	audio, err := Decode(a.Bytes())
	if err != nil {
		return fmt.Errorf("loading artifact: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.audio = audio
	p.log.Debugw("player loaded", "session", a.SessionID, "samples", len(audio.Samples))
	return nil
}

// Clear removes the current source.
func (p *Player) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.audio = nil
}

// Loaded reports whether there is something to play.
func (p *Player) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.audio != nil
}

// Duration is the length of the loaded audio.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil || p.audio.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(p.audio.Samples)) * time.Second / time.Duration(p.audio.Format.SampleRate)
}

// Play renders the loaded audio and blocks until it finishes, ctx is
// cancelled, or the source is replaced or cleared.
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return ErrNothingLoaded
	}
	p.stopLocked()
	audio := p.audio
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	err := p.out.Play(ctx, audio.Format.SampleRate, audio.Samples)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Player) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// PulseOutput plays through a PulseAudio server.
type PulseOutput struct {
	AppName string
}

// Play implements Output.
func (o PulseOutput) Play(ctx context.Context, rate int, samples []int16) error {
	name := o.AppName
	if name == "" {
		name = "voxrec"
	}
	client, err := pulse.NewClient(pulse.ClientApplicationName(name))
	if err != nil {
		return fmt.Errorf("%w: connect to audio server: %v", recording.ErrPermissionDenied, err)
	}
	defer client.Close()

	pos := 0
	stream, err := client.NewPlayback(pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, samples[pos:])
		pos += n
		if pos >= len(samples) {
			return n, pulse.EndOfData
		}
		return n, nil
	}), pulse.PlaybackMono, pulse.PlaybackSampleRate(rate))
	if err != nil {
		return fmt.Errorf("open playback stream: %w", err)
	}
	defer stream.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.Start()
		stream.Drain()
	}()
	select {
	case <-done:
		return stream.Error()
	case <-ctx.Done():
		stream.Stop()
		<-done
		return ctx.Err()
	}
}
