// SPDX-License-Identifier: EPL-2.0

// Package pcm adapts go-audio integer decoders to float sample streams.
package pcm

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
)

var ErrBitDepth = errors.New("pcm: unsupported bit depth")

// IntDecoder is the streaming half of the go-audio wav and aiff decoders.
type IntDecoder interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source converts integer PCM to float32 in [-1, 1].
type Source struct {
	dec    IntDecoder
	format *goaudio.Format
	scale  float32
	bias   int
	buf    *goaudio.IntBuffer
}

// NewSource wraps dec. unsigned8 marks 8-bit data stored unsigned, as in WAV.
func NewSource(dec IntDecoder, format *goaudio.Format, bitDepth int, unsigned8 bool) (*Source, error) {
	if format == nil || format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: no channel layout", ErrBitDepth)
	}

	s := &Source{dec: dec, format: format}
	switch bitDepth {
	case 8:
		s.scale = 1 << 7
		if unsigned8 {
			s.bias = 1 << 7
		}
	case 16:
		s.scale = 1 << 15
	case 24:
		s.scale = 1 << 23
	case 32:
		s.scale = 1 << 31
	default:
		return nil, fmt.Errorf("%w: %d", ErrBitDepth, bitDepth)
	}
	return s, nil
}

func (s *Source) SampleRate() int { return s.format.SampleRate }
func (s *Source) Channels() int   { return s.format.NumChannels }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.format.NumChannels
	if want == 0 {
		return 0, nil
	}

	if s.buf == nil || cap(s.buf.Data) < want {
		s.buf = &goaudio.IntBuffer{Data: make([]int, want), Format: s.format}
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.dec.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = float32(v-s.bias) / s.scale
	}
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
