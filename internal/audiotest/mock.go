// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio sources for tests.
package audiotest

import (
	"errors"
	"io"
	"math"
)

// Wave yields the value of channel ch at frame i.
type Wave func(i, ch int) float32

// Source generates a fixed number of frames from a Wave. It satisfies
// audio.Source without importing it.
type Source struct {
	rate   int
	ch     int
	frames int
	pos    int
	wave   Wave
	closed bool

	// FailAfter, when positive, makes ReadSamples fail with ErrSynthetic
	// once that many frames were produced.
	FailAfter int
}

// ErrSynthetic is returned by sources configured with FailAfter.
var ErrSynthetic = errors.New("audiotest: synthetic read failure")

func New(rate, channels, frames int, wave Wave) *Source {
	return &Source{rate: rate, ch: channels, frames: frames, wave: wave}
}

func Silence(rate, channels, frames int) *Source {
	return Constant(rate, channels, frames, 0)
}

func Constant(rate, channels, frames int, v float32) *Source {
	return New(rate, channels, frames, func(int, int) float32 { return v })
}

// Sine is the same tone on every channel.
func Sine(rate, channels, frames int, freq float64) *Source {
	return New(rate, channels, frames, func(i, _ int) float32 {
		return float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	})
}

// Tagged holds channel c at a constant (c+1)/10, so channel order can be
// checked after a round trip.
func Tagged(rate, channels, frames int) *Source {
	return New(rate, channels, frames, func(_, c int) float32 { return float32(c+1) / 10 })
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.ch }
func (s *Source) Closed() bool    { return s.closed }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Rewind restarts generation from frame zero.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.FailAfter > 0 && s.pos >= s.FailAfter {
		return 0, ErrSynthetic
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.ch, s.frames-s.pos)
	if s.FailAfter > 0 {
		n = min(n, s.FailAfter-s.pos)
	}
	for f := range n {
		for c := range s.ch {
			dst[f*s.ch+c] = s.wave(s.pos+f, c)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.ch, io.EOF
	}
	return n * s.ch, nil
}

// Reader is the read half of audio.Source.
type Reader interface {
	Channels() int
	ReadSamples(dst []float32) (int, error)
}

// Collect reads src until io.EOF.
func Collect(src Reader) ([]float32, error) {
	buf := make([]float32, 512*src.Channels())
	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
	}
}
