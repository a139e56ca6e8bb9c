package capture

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaf/g711"
)

func TestParseCodec(t *testing.T) {
	for in, want := range map[string]Codec{"": CodecPCM16, "pcm16": CodecPCM16, "mulaw": CodecMulaw, "alaw": CodecAlaw} {
		got, err := ParseCodec(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseCodec("opus")
	assert.Error(t, err)
}

func TestSampleRateFor(t *testing.T) {
	assert.Equal(t, 16000, SampleRateFor(CodecPCM16, 0))
	assert.Equal(t, 44100, SampleRateFor(CodecPCM16, 44100))
	assert.Equal(t, 8000, SampleRateFor(CodecMulaw, 44100))
	assert.Equal(t, 8000, SampleRateFor(CodecAlaw, 0))
}

func TestPCMHeader(t *testing.T) {
	h := Header(CodecPCM16, 16000)
	require.Len(t, h, 44)
	assert.Equal(t, "RIFF", string(h[0:4]))
	assert.Equal(t, uint32(streamingSize), binary.LittleEndian.Uint32(h[4:]))
	assert.Equal(t, "WAVE", string(h[8:12]))
	assert.Equal(t, "fmt ", string(h[12:16]))
	assert.Equal(t, uint16(formatPCM), binary.LittleEndian.Uint16(h[20:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(h[22:]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(h[24:]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(h[28:]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(h[34:]))
	assert.Equal(t, "data", string(h[36:40]))
}

func TestG711Header(t *testing.T) {
	h := Header(CodecMulaw, 8000)
	require.Len(t, h, 46)
	assert.Equal(t, uint32(18), binary.LittleEndian.Uint32(h[16:]))
	assert.Equal(t, uint16(formatMulaw), binary.LittleEndian.Uint16(h[20:]))
	assert.Equal(t, uint16(8), binary.LittleEndian.Uint16(h[34:]))
	assert.Equal(t, "data", string(h[38:42]))

	assert.Equal(t, uint16(formatAlaw), binary.LittleEndian.Uint16(Header(CodecAlaw, 8000)[20:]))
}

func TestEncodeHeaderOnlyOnce(t *testing.T) {
	e := NewEncoder(CodecPCM16, 16000)
	assert.False(t, e.HeaderSent())

	first := e.Encode([]int16{1, -1})
	assert.True(t, e.HeaderSent())
	require.Len(t, first, 44+4)
	assert.Equal(t, []byte{1, 0, 0xFF, 0xFF}, first[44:])

	second := e.Encode([]int16{2})
	assert.Equal(t, []byte{2, 0}, second)
}

func TestEncodeMulaw(t *testing.T) {
	e := NewEncoder(CodecMulaw, 48000)
	assert.Equal(t, 8000, e.SampleRate())

	samples := []int16{0, 1000, -1000, 32000}
	out := e.Encode(samples)
	require.Len(t, out, 46+len(samples))

	decoded := g711.DecodeUlaw(out[46:])
	require.Len(t, decoded, 2*len(samples))
	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(decoded[2*i:]))
		assert.InDelta(t, want, got, float64(abs(want))/16+8, "sample %d", i)
	}
}

func abs(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
