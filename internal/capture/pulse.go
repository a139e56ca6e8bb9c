package capture

import (
	"context"
	"fmt"

	"github.com/jfreymuth/pulse"
	"go.uber.org/zap"

	"github.com/fakeyudi/voxrec/internal/recording"
)

// Pulse captures the microphone through a PulseAudio (or PipeWire-pulse)
// server.
type Pulse struct {
	AppName string
	Codec   Codec
	Log     *zap.SugaredLogger
}

// Open connects to the server and prepares a mono record stream. Any refusal
// by the server to connect or to create the stream is reported as
// recording.ErrPermissionDenied.
func (p *Pulse) Open(ctx context.Context, cs recording.Constraints) (recording.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := p.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	name := p.AppName
	if name == "" {
		name = "voxrec"
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName(name))
	if err != nil {
		return nil, fmt.Errorf("%w: connect to audio server: %v", recording.ErrPermissionDenied, err)
	}

	rate := SampleRateFor(p.Codec, cs.SampleRate)
	opts := []pulse.RecordOption{pulse.RecordMono, pulse.RecordSampleRate(rate)}
	if cs.Device != "" {
		src, err := client.SourceByID(cs.Device)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("capture device %q: %w", cs.Device, err)
		}
		opts = append(opts, pulse.RecordSource(src))
	}

	var st *stream
	rec, err := client.NewRecord(pulse.Int16Writer(func(buf []int16) (int, error) {
		st.write(buf)
		return len(buf), nil
	}), opts...)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: open record stream: %v", recording.ErrPermissionDenied, err)
	}

	st = newStream(NewEncoder(p.Codec, rate), cs.FragmentInterval, device{
		start: func() error {
			rec.Start()
			return rec.Error()
		},
		pause: func() error {
			rec.Stop()
			return rec.Error()
		},
		resume: func() error {
			rec.Start()
			return rec.Error()
		},
		release: func() {
			rec.Close()
			client.Close()
			log.Debugw("pulse record stream released", "device", cs.Device)
		},
	})
	log.Debugw("pulse record stream opened", "device", cs.Device, "rate", rate, "codec", string(p.Codec))
	return st, nil
}

// Source is a capture device known to the audio server.
type Source struct {
	ID      string
	Name    string
	Default bool
}

// ListSources returns the server's capture devices.
func ListSources(appName string) ([]Source, error) {
	client, err := pulse.NewClient(pulse.ClientApplicationName(appName))
	if err != nil {
		return nil, fmt.Errorf("%w: connect to audio server: %v", recording.ErrPermissionDenied, err)
	}
	defer client.Close()

	srcs, err := client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	def, _ := client.DefaultSource()

	out := make([]Source, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, Source{
			ID:      s.ID(),
			Name:    s.Name(),
			Default: def != nil && def.ID() == s.ID(),
		})
	}
	return out, nil
}
