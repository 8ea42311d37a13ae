// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// The decoder always yields 16-bit stereo, so an MP3 can never carry the
// eight channels of a quad-binaural mix. It is registered so that probing
// reports the real layout and staging refuses the file with a clear error.
package mp3
