// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/quadbinaural/audio"
)

var ErrNotVorbis = errors.New("vorbis: not an Ogg Vorbis stream")

// valueReader is the part of oggvorbis.Reader the source needs.
type valueReader interface {
	SampleRate() int
	Channels() int
	// Read returns a count of values, always whole frames.
	Read([]float32) (int, error)
}

type source struct {
	dec valueReader
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return s.dec.Channels() }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	ch := s.dec.Channels()
	dst = dst[:len(dst)-len(dst)%ch]
	if len(dst) == 0 {
		return 0, nil
	}
	return s.dec.Read(dst)
}

type Decoder struct{}

var _ audio.Decoder = Decoder{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbis, err)
	}
	return &source{dec: dec}, nil
}
