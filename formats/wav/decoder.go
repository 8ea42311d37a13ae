// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/quadbinaural/audio"
	"github.com/ik5/quadbinaural/formats/internal/pcm"
)

// WAVE format tags accepted by Decoder. Multichannel files are usually
// written as WAVE_FORMAT_EXTENSIBLE.
const (
	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
)

// Decoder reads integer PCM WAV files of any channel count and chunk order.
type Decoder struct{}

var _ audio.Decoder = Decoder{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Source, error) {
	dec := gowav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotWavFile, err)
		}
		return nil, ErrNotWavFile
	}

	switch dec.WavAudioFormat {
	case formatPCM, formatExtensible:
	default:
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPCMData, err)
	}
	if dec.PCMChunk == nil {
		return nil, ErrNoPCMData
	}

	src, err := pcm.NewSource(dec, dec.Format(), int(dec.BitDepth), true)
	if err != nil {
		return nil, fmt.Errorf("wav: %w", err)
	}
	return src, nil
}
