// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
// Vorbis carries up to 255 channels, so an 8-channel quad-binaural mix can
// be shipped compressed. Pure Data cannot stream Vorbis, so such tracks are
// staged to WAV before playback.
package vorbis
