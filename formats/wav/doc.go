// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes WAV files through github.com/go-audio/wav.
//
// Decoder accepts integer PCM at 8, 16, 24 or 32 bits, plain or
// WAVE_FORMAT_EXTENSIBLE, with any channel count and chunk order. Float WAV
// is rejected with ErrUnsupportedEncoding.
//
// Write and WriteFile encode an audio.Source as 16-bit PCM, keeping its rate
// and channel count. Staged quad-binaural tracks are written this way so Pure
// Data's readsf~ can stream them.
package wav
