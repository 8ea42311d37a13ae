// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/quadbinaural/audio"
)

const writeFrames = 4096

// Write encodes src as 16-bit PCM WAV at the source's rate and channel
// count. It returns the number of frames written.
func Write(ws io.WriteSeeker, src audio.Source) (int64, error) {
	ch := src.Channels()
	if ch < 1 {
		return 0, ErrNoChannels
	}

	enc := gowav.NewEncoder(ws, src.SampleRate(), 16, ch, formatPCM)
	format := &goaudio.Format{NumChannels: ch, SampleRate: src.SampleRate()}
	in := make([]float32, writeFrames*ch)
	out := &goaudio.IntBuffer{Format: format, Data: make([]int, len(in)), SourceBitDepth: 16}

	var frames int64
	for {
		n, rerr := src.ReadSamples(in)
		n -= n % ch
		if n > 0 {
			out.Data = out.Data[:n]
			for i, v := range in[:n] {
				out.Data[i] = int(toPCM16(v))
			}
			if err := enc.Write(out); err != nil {
				return frames, fmt.Errorf("wav: encode: %w", err)
			}
			frames += int64(n / ch)
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return frames, rerr
		}
	}

	if frames == 0 {
		return 0, ErrEmptySource
	}
	if err := enc.Close(); err != nil {
		return frames, fmt.Errorf("wav: finish: %w", err)
	}
	return frames, nil
}

// WriteFile writes src to path, replacing any existing file.
func WriteFile(path string, src audio.Source) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}

	frames, err := Write(f, src)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("wav: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return frames, err
}

func toPCM16(v float32) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	}
	return int16(v * 32767)
}
