// Package playback decodes recorded WAV artifacts and plays them back.
package playback

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zaf/g711"
)

// ErrNotWAV is returned for data that is not a RIFF/WAVE file.
var ErrNotWAV = errors.New("not a WAV file")

// Format describes the fmt chunk of a WAV file.
type Format struct {
	Tag        uint16
	Channels   int
	SampleRate int
	Bits       int
}

// Audio is decoded mono PCM.
type Audio struct {
	Format  Format
	Samples []int16
}

// Decode parses a WAV file produced by the capture package. Chunk sizes of
// 0xFFFFFFFF, as written while streaming, extend to the end of the data.
func Decode(b []byte) (*Audio, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}
	var (
		f       *Format
		payload []byte
	)
	for off := 12; off+8 <= len(b); {
		id := string(b[off : off+4])
		size := int64(binary.LittleEndian.Uint32(b[off+4:]))
		body := off + 8
		end := int64(body) + size
		if size == 0xFFFFFFFF || end > int64(len(b)) {
			end = int64(len(b))
		}
		chunk := b[body:end]

		switch id {
		case "fmt ":
			if len(chunk) < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrNotWAV)
			}
			f = &Format{
				Tag:        binary.LittleEndian.Uint16(chunk[0:]),
				Channels:   int(binary.LittleEndian.Uint16(chunk[2:])),
				SampleRate: int(binary.LittleEndian.Uint32(chunk[4:])),
				Bits:       int(binary.LittleEndian.Uint16(chunk[14:])),
			}
		case "data":
			payload = chunk
		}
		off = int(end)
		if off%2 == 1 && off < len(b) {
			off++
		}
		if f != nil && payload != nil {
			break
		}
	}
	if f == nil {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrNotWAV)
	}
	if f.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count %d", f.Channels)
	}

	var lpcm []byte
	switch {
	case f.Tag == 1 && f.Bits == 16:
		lpcm = payload[:len(payload)&^1]
	case f.Tag == 7 && f.Bits == 8:
		lpcm = g711.DecodeUlaw(payload)
	case f.Tag == 6 && f.Bits == 8:
		lpcm = g711.DecodeAlaw(payload)
	default:
		return nil, fmt.Errorf("unsupported format tag %d with %d bits", f.Tag, f.Bits)
	}

	samples := make([]int16, len(lpcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(lpcm[2*i:]))
	}
	return &Audio{Format: *f, Samples: samples}, nil
}
