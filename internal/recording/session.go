package recording

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/fakeyudi/voxrec/internal/render"
)

// ErrPermissionDenied is returned by Start when capture access is refused.
var ErrPermissionDenied = errors.New("capture permission denied")

// ErrNoActiveSession is returned by pause, resume and stop outside a session.
var ErrNoActiveSession = errors.New("no active recording session")

// ErrNoArtifact is returned by Save before a recording has been finalized.
var ErrNoArtifact = errors.New("no finished recording to save")

// ErrSessionActive is returned by Start while a session is still open.
var ErrSessionActive = errors.New("recording session already in progress")

// ArtifactFileName is the fixed name finished recordings are saved under.
const ArtifactFileName = "recording.wav"

// Session is one start-to-stop recording lifecycle.
type Session struct {
	ID        string
	StartTime time.Time

	fragments [][]byte
	size      int
	paused    bool
	elapsed   time.Duration
	resumedAt time.Time

	stream   Stream
	analyser Analyser
	loop     *render.Loop
	bins     []byte
}

func (s *Session) appendFragment(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.fragments = append(s.fragments, buf)
	s.size += len(buf)
}

func (s *Session) assemble() []byte {
	out := make([]byte, 0, s.size)
	for _, f := range s.fragments {
		out = append(out, f...)
	}
	return out
}

func (s *Session) reset() {
	s.fragments = nil
	s.size = 0
}

// Artifact is a finished recording. Its contents never change.
type Artifact struct {
	SessionID string
	MIMEType  string
	CreatedAt time.Time
	Duration  time.Duration // wall-clock time spent recording, pauses excluded

	data []byte
}

// Bytes returns a copy of the recording.
func (a *Artifact) Bytes() []byte {
	return bytes.Clone(a.data)
}

// Len returns the recording size in bytes.
func (a *Artifact) Len() int { return len(a.data) }

// Reader streams the recording without copying it.
func (a *Artifact) Reader() io.Reader { return bytes.NewReader(a.data) }

// NewArtifact wraps data as an artifact. The slice is copied.
func NewArtifact(sessionID, mime string, data []byte) *Artifact {
	return &Artifact{
		SessionID: sessionID,
		MIMEType:  mime,
		CreatedAt: time.Now(),
		data:      bytes.Clone(data),
	}
}
