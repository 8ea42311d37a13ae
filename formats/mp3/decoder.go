// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/quadbinaural/audio"
)

// go-mp3 output layout.
const (
	channels      = 2
	bytesPerFrame = channels * 2
)

var ErrNotMP3 = errors.New("mp3: not an MPEG audio stream")

type byteReader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec  byteReader
	buf  []byte
	tail int // undecoded bytes kept at the front of buf
}

func (s *source) SampleRate() int { return s.dec.SampleRate() }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}

	size := frames * bytesPerFrame
	if cap(s.buf) < size {
		buf := make([]byte, size)
		copy(buf, s.buf[:s.tail])
		s.buf = buf
	}
	s.buf = s.buf[:size]

	n, err := s.dec.Read(s.buf[s.tail:])
	avail := s.tail + n
	whole := avail - avail%bytesPerFrame

	for i := 0; i < whole; i += 2 {
		dst[i/2] = float32(int16(binary.LittleEndian.Uint16(s.buf[i:]))) / 32768
	}
	s.tail = copy(s.buf, s.buf[whole:avail])

	if errors.Is(err, io.EOF) && whole == 0 {
		return 0, io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return whole / 2, fmt.Errorf("mp3: %w", err)
	}
	return whole / 2, nil
}

type Decoder struct{}

var _ audio.Decoder = Decoder{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3, err)
	}
	return &source{dec: dec}, nil
}
