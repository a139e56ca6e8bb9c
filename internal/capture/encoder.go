// Package capture provides capture services that deliver recordings as a
// sequence of WAV fragments.
package capture

import (
	"encoding/binary"
	"fmt"

	"github.com/zaf/g711"
)

// Codec selects how samples are stored in the WAV data chunk.
type Codec string

const (
	CodecPCM16 Codec = "pcm16"
	CodecMulaw Codec = "mulaw"
	CodecAlaw  Codec = "alaw"
)

// WAV format tags.
const (
	formatPCM   = 1
	formatAlaw  = 6
	formatMulaw = 7
)

// streamingSize marks RIFF and data chunk sizes as unknown, the convention for
// WAV written before its length is known.
const streamingSize = 0xFFFFFFFF

// MIMEType is the content type of every artifact produced here.
const MIMEType = "audio/wav"

// ParseCodec validates a codec name.
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(s); c {
	case CodecPCM16, CodecMulaw, CodecAlaw:
		return c, nil
	case "":
		return CodecPCM16, nil
	}
	return "", fmt.Errorf("unknown codec %q (want pcm16, mulaw or alaw)", s)
}

// SampleRateFor returns the rate a codec records at; G.711 is fixed at 8 kHz.
func SampleRateFor(c Codec, requested int) int {
	if c == CodecMulaw || c == CodecAlaw {
		return 8000
	}
	if requested <= 0 {
		return 16000
	}
	return requested
}

// Encoder converts mono PCM into WAV bytes. The first call to Encode is
// prefixed with the header so that concatenating every output yields a
// complete file.
type Encoder struct {
	codec      Codec
	rate       int
	headerSent bool
}

// NewEncoder returns an encoder for mono audio at rate.
func NewEncoder(codec Codec, rate int) *Encoder {
	return &Encoder{codec: codec, rate: SampleRateFor(codec, rate)}
}

func (e *Encoder) Codec() Codec    { return e.codec }
func (e *Encoder) SampleRate() int { return e.rate }

// HeaderSent reports whether Encode has produced any output yet.
func (e *Encoder) HeaderSent() bool { return e.headerSent }

// Encode returns the encoded form of samples, with the header on first use.
func (e *Encoder) Encode(samples []int16) []byte {
	lpcm := make([]byte, 2*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint16(lpcm[2*i:], uint16(v))
	}
	var body []byte
	switch e.codec {
	case CodecMulaw:
		body = g711.EncodeUlaw(lpcm)
	case CodecAlaw:
		body = g711.EncodeAlaw(lpcm)
	default:
		body = lpcm
	}
	if e.headerSent {
		return body
	}
	e.headerSent = true
	return append(Header(e.codec, e.rate), body...)
}

// Header returns a streaming WAV header for mono audio.
func Header(codec Codec, rate int) []byte {
	tag, bits, fmtSize := uint16(formatPCM), uint16(16), uint32(16)
	switch codec {
	case CodecMulaw:
		tag, bits, fmtSize = formatMulaw, 8, 18
	case CodecAlaw:
		tag, bits, fmtSize = formatAlaw, 8, 18
	}
	blockAlign := bits / 8

	b := make([]byte, 0, 46)
	b = append(b, "RIFF"...)
	b = binary.LittleEndian.AppendUint32(b, streamingSize)
	b = append(b, "WAVE"...)
	b = append(b, "fmt "...)
	b = binary.LittleEndian.AppendUint32(b, fmtSize)
	b = binary.LittleEndian.AppendUint16(b, tag)
	b = binary.LittleEndian.AppendUint16(b, 1)
	b = binary.LittleEndian.AppendUint32(b, uint32(rate))
	b = binary.LittleEndian.AppendUint32(b, uint32(rate)*uint32(blockAlign))
	b = binary.LittleEndian.AppendUint16(b, blockAlign)
	b = binary.LittleEndian.AppendUint16(b, bits)
	if fmtSize == 18 {
		b = binary.LittleEndian.AppendUint16(b, 0)
	}
	b = append(b, "data"...)
	b = binary.LittleEndian.AppendUint32(b, streamingSize)
	return b
}
