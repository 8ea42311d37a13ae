// SPDX-License-Identifier: EPL-2.0

// Package pd implements engine.Engine on top of a Pure Data process.
//
// Messages travel as FUDI over TCP. On Initialize the engine writes a small
// bootstrap patch into its work directory, starts
//
//	pd -nogui -noprefs -r 48000 -inchannels 0 -outchannels 2 -blocksize 64 -open bootstrap.pd
//
// and connects to the [netreceive] the bootstrap patch listens on. Every
// message "<receiver> <payload>;" is forwarded by the bootstrap patch to the
// named [receive], so "x 0.707;" reaches [r x] inside the loaded patch and
// "pd dsp 1;" switches DSP on.
//
// With Config.External set nothing is spawned and the engine connects to an
// already running Pd that has the bootstrap patch (see BootstrapPatch) open.
package pd
