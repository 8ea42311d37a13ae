// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported with any channel count,
// so an 8-channel quad-binaural AIFF can be handed to Pure Data as is.
package aiff
