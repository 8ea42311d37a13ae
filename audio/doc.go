// SPDX-License-Identifier: EPL-2.0

// Package audio holds the PCM primitives used to stage binaural tracks.
//
// A Source yields interleaved float32 samples in [-1, 1]. Decoders for the
// container formats live under formats/ and are looked up by file extension
// through a Registry:
//
//	reg := audio.NewRegistry()
//	reg.Register("wav", wav.Decoder{})
//	src, err := reg.Open("quad.wav")
//
// The Resampler converts a Source to another rate with Catmull-Rom
// interpolation and keeps every channel, so an 8-channel quad-binaural
// track stays 8 channels:
//
//	out := audio.Resample(src, 48000)
//
// Sources signal the end of the stream with io.EOF; any other error is a
// decode failure.
package audio
