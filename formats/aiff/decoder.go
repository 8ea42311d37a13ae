// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/ik5/quadbinaural/audio"
	"github.com/ik5/quadbinaural/formats/internal/pcm"
)

// Decoder reads uncompressed AIFF files with any channel count.
type Decoder struct{}

var _ audio.Decoder = Decoder{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Source, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels < 1 {
		return nil, ErrNoFormat
	}

	// AIFF stores 8-bit samples signed.
	src, err := pcm.NewSource(dec, format, int(dec.BitDepth), false)
	if err != nil {
		return nil, fmt.Errorf("aiff: %w", err)
	}
	return src, nil
}
