// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("wav: not a WAV file")
	ErrUnsupportedEncoding = errors.New("wav: only integer PCM is supported")
	ErrNoPCMData           = errors.New("wav: no data chunk")
	ErrNoChannels          = errors.New("wav: source has no channels")
	ErrEmptySource         = errors.New("wav: source produced no frames")
)
