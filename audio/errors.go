// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("audio: dst size must be multiple of channels")
	ErrUnknownFormat  = errors.New("audio: no decoder for format")
	ErrNoExtension    = errors.New("audio: file has no extension")
	ErrNoProgress     = errors.New("audio: source returned no data")
)
