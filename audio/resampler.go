// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// maxIdleReads bounds consecutive empty reads from a source before giving up.
const maxIdleReads = 64

// lowPassAlpha is the one-pole smoothing applied to input frames when
// downsampling.
const lowPassAlpha = 0.5

// Resampler converts src to another rate with Catmull-Rom interpolation,
// keeping every channel.
type Resampler struct {
	src  Source
	rate int
	ch   int
	step float64 // source frames per output frame

	// win[1] and win[2] bracket the output position; win[0] and win[3]
	// are the outer control points.
	win  [4][]float32
	real [4]bool
	pos  float64

	in      []float32
	inOff   int
	inLen   int
	srcDone bool
	primed  bool

	lowPass bool
	lpWarm  bool
	lpState []float32
}

var _ Source = (*Resampler)(nil)

func NewResampler(src Source, rate int) *Resampler {
	ch := src.Channels()
	r := &Resampler{
		src:     src,
		rate:    rate,
		ch:      ch,
		step:    float64(src.SampleRate()) / float64(rate),
		in:      make([]float32, 1024*ch),
		lpState: make([]float32, ch),
	}
	r.lowPass = r.step > 1
	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}
	return r
}

// Resample returns src unchanged when it already runs at rate.
func Resample(src Source, rate int) Source {
	if src.SampleRate() == rate {
		return src
	}
	return NewResampler(src, rate)
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.ch }
func (r *Resampler) Close() error    { return r.src.Close() }

// next copies one source frame into frame. It reports false at end of input.
func (r *Resampler) next(frame []float32) (bool, error) {
	idle := 0
	for r.inOff >= r.inLen {
		if r.srcDone {
			return false, nil
		}
		n, err := r.src.ReadSamples(r.in)
		r.inOff, r.inLen = 0, n-n%r.ch
		switch {
		case errors.Is(err, io.EOF):
			r.srcDone = true
		case err != nil:
			return false, fmt.Errorf("resample: %w", err)
		case n == 0:
			if idle++; idle > maxIdleReads {
				return false, ErrNoProgress
			}
		}
	}

	copy(frame, r.in[r.inOff:r.inOff+r.ch])
	r.inOff += r.ch

	if r.lowPass {
		if !r.lpWarm {
			// Seed from the first frame so the filter does not ramp up from silence.
			copy(r.lpState, frame)
			r.lpWarm = true
		}
		for c, v := range frame {
			frame[c] = lowPassAlpha*v + (1-lowPassAlpha)*r.lpState[c]
			r.lpState[c] = frame[c]
		}
	}
	return true, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.next(r.win[1])
	if err != nil || !ok {
		return err
	}
	copy(r.win[0], r.win[1])
	r.real[0], r.real[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err := r.next(r.win[i])
		if err != nil {
			return err
		}
		r.real[i] = ok
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
	}
	return nil
}

func (r *Resampler) advance() error {
	first := r.win[0]
	copy(r.win[:], r.win[1:])
	r.win[3] = first
	copy(r.real[:], r.real[1:])

	ok, err := r.next(r.win[3])
	if err != nil {
		return err
	}
	r.real[3] = ok
	if !ok {
		copy(r.win[3], r.win[2])
	}
	return nil
}

// ReadSamples produces output values; len(dst) must be a multiple of Channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.ch != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	n := 0
	for n+r.ch <= len(dst) {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return n, err
			}
		}
		if !r.real[1] {
			break
		}

		x := float32(r.pos)
		for c := range r.ch {
			dst[n+c] = cubic(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		n += r.ch
		r.pos += r.step
	}

	if n == 0 && len(dst) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// cubic evaluates the Catmull-Rom spline through y0..y3 at x in [0, 1]
// between y1 and y2.
func cubic(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	return ((a0*x+a1)*x+a2)*x + y1
}
