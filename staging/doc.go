// SPDX-License-Identifier: EPL-2.0

// Package staging prepares a binaural track for Pure Data.
//
// readsf~ only streams WAV and AIFF and never resamples, so a track in any
// other container, or at a rate different from the engine's, is decoded and
// rewritten as 16-bit WAV in the staging directory. Every track must carry
// the eight channels of the quad-binaural layout: 1-2 front, 3-4 right,
// 5-6 back, 7-8 left.
package staging
