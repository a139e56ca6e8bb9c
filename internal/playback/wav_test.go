package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/voxrec/internal/capture"
	"github.com/fakeyudi/voxrec/internal/recording"
)

func encode(codec capture.Codec, rate int, chunks ...[]int16) []byte {
	enc := capture.NewEncoder(codec, rate)
	var out []byte
	for _, c := range chunks {
		out = append(out, enc.Encode(c)...)
	}
	return out
}

func TestDecodeStreamingPCM(t *testing.T) {
	data := encode(capture.CodecPCM16, 16000, []int16{1, 2}, []int16{-3})
	a, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, Format{Tag: 1, Channels: 1, SampleRate: 16000, Bits: 16}, a.Format)
	assert.Equal(t, []int16{1, 2, -3}, a.Samples)
}

func TestDecodeHeaderOnly(t *testing.T) {
	a, err := Decode(capture.Header(capture.CodecPCM16, 16000))
	require.NoError(t, err)
	assert.Empty(t, a.Samples)
}

func TestDecodeG711(t *testing.T) {
	for _, codec := range []capture.Codec{capture.CodecMulaw, capture.CodecAlaw} {
		a, err := Decode(encode(codec, 0, []int16{0, 4000, -4000}))
		require.NoError(t, err, codec)
		assert.Equal(t, 8000, a.Format.SampleRate)
		require.Len(t, a.Samples, 3)
		assert.InDelta(t, 4000, a.Samples[1], 200)
		assert.InDelta(t, -4000, a.Samples[2], 200)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("hello world, not a wav"))
	assert.ErrorIs(t, err, ErrNotWAV)

	_, err = Decode([]byte("RIFF\x04\x00\x00\x00WAVE"))
	assert.ErrorIs(t, err, ErrNotWAV)
}

// Feature: voxrec, Property 7: Decoding concatenated PCM fragments returns every sample in order
func TestDecodeRoundTripsFragments(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "fragments")
		var chunks [][]int16
		var want []int16
		for i := 0; i < n; i++ {
			c := rapid.SliceOfN(rapid.Int16(), 0, 64).Draw(t, "chunk")
			chunks = append(chunks, c)
			want = append(want, c...)
		}
		a, err := Decode(encode(capture.CodecPCM16, 16000, chunks...))
		if err != nil {
			t.Fatal(err)
		}
		if len(a.Samples) != len(want) {
			t.Fatalf("got %d samples, want %d", len(a.Samples), len(want))
		}
		for i := range want {
			if a.Samples[i] != want[i] {
				t.Fatalf("sample %d: got %d want %d", i, a.Samples[i], want[i])
			}
		}
	})
}

type fakeOutput struct {
	mu     sync.Mutex
	played [][]int16
	rate   int
	block  bool
}

func (f *fakeOutput) Play(ctx context.Context, rate int, samples []int16) error {
	f.mu.Lock()
	f.played = append(f.played, samples)
	f.rate = rate
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func TestPlayerLoadPlayClear(t *testing.T) {
	out := &fakeOutput{}
	p := NewPlayer(out, nil)
	assert.ErrorIs(t, p.Play(context.Background()), ErrNothingLoaded)

	art := recording.NewArtifact("s1", capture.MIMEType, encode(capture.CodecPCM16, 16000, make([]int16, 8000)))
	require.NoError(t, p.Load(art))
	assert.True(t, p.Loaded())
	assert.Equal(t, 500*time.Millisecond, p.Duration())

	require.NoError(t, p.Play(context.Background()))
	assert.Equal(t, 16000, out.rate)
	assert.Len(t, out.played, 1)

	p.Clear()
	assert.False(t, p.Loaded())
	assert.Zero(t, p.Duration())
}

func TestPlayerClearStopsPlayback(t *testing.T) {
	out := &fakeOutput{block: true}
	p := NewPlayer(out, nil)
	art := recording.NewArtifact("s1", capture.MIMEType, encode(capture.CodecPCM16, 16000, []int16{1}))
	require.NoError(t, p.Load(art))

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background()) }()
	assert.Eventually(t, func() bool {
		out.mu.Lock()
		defer out.mu.Unlock()
		return len(out.played) == 1
	}, time.Second, time.Millisecond)

	p.Clear()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("playback did not stop")
	}
}

func TestPlayerRejectsBadArtifact(t *testing.T) {
	p := NewPlayer(&fakeOutput{}, nil)
	art := recording.NewArtifact("s1", capture.MIMEType, []byte("nope"))
	assert.ErrorIs(t, p.Load(art), ErrNotWAV)
	assert.False(t, p.Loaded())
}
