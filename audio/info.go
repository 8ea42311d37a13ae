// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Info describes a decoded stream.
type Info struct {
	Format     string
	SampleRate int
	Channels   int
	Frames     int64
}

// Duration of the stream at its own rate.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
}

func (i Info) String() string {
	return fmt.Sprintf("%s %d Hz %d ch %s", i.Format, i.SampleRate, i.Channels, i.Duration().Round(time.Millisecond))
}

// Probe decodes the whole file to count its frames.
func (r *Registry) Probe(path string) (Info, error) {
	src, err := r.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer src.Close()

	info := Info{
		Format:     FormatOf(path),
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
	}
	frames, err := Count(src)
	info.Frames = frames
	return info, err
}

// Count drains src and returns how many frames it produced.
func Count(src Source) (int64, error) {
	ch := src.Channels()
	if ch <= 0 {
		return 0, fmt.Errorf("%w: %d channels", ErrInvalidDstSize, ch)
	}

	buf := make([]float32, 1024*ch)
	var values int64
	idle := 0
	for {
		n, err := src.ReadSamples(buf)
		values += int64(n)
		if errors.Is(err, io.EOF) {
			return values / int64(ch), nil
		}
		if err != nil {
			return values / int64(ch), err
		}
		if n == 0 {
			if idle++; idle > maxIdleReads {
				return values / int64(ch), ErrNoProgress
			}
			continue
		}
		idle = 0
	}
}
