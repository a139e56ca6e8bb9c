package recording

import (
	"context"
	"time"
)

// Constraints describe the capture a session asks for.
type Constraints struct {
	Device           string // empty selects the default input
	SampleRate       int
	FragmentInterval time.Duration
}

// CaptureService opens capture streams. Open fails with an error wrapping
// ErrPermissionDenied when access to the input is refused.
type CaptureService interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is one open capture. Start hands it the sink that receives this
// session's fragments. Start, Pause and Resume must not call the sink
// synchronously.
//
// After Stop the stream flushes what it holds, calls Sink.Finalized exactly
// once and releases its resources. Stop is idempotent. Close abandons the
// stream and must not be called from inside a Sink callback.
type Stream interface {
	Start(sink Sink) error
	Pause() error
	Resume() error
	Stop() error
	Close() error
	MIMEType() string
}

// Sink receives asynchronous notifications from a stream.
type Sink interface {
	Fragment(data []byte)
	Finalized(err error)
}

// AnalysisService attaches a frequency analyser to a stream.
type AnalysisService interface {
	Attach(s Stream) (Analyser, error)
}

// Analyser exposes the current frequency-amplitude snapshot of a stream.
type Analyser interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
	Close() error
}

// Downloader hands finished bytes to the user under a file name.
type Downloader interface {
	Download(ctx context.Context, data []byte, name string) error
}

// Player exposes the latest artifact for playback.
type Player interface {
	Load(a *Artifact) error
	Clear()
}
