// SPDX-License-Identifier: EPL-2.0

// Package quadbinaural plays a video next to an 8-channel binaural track and
// steers the perceived sound direction from head orientation.
//
// The binaural mix itself runs inside an embedded audio engine (Pure Data,
// see engine/pd) that loads the bundled quad_binaural.pd patch. The video is
// presented by a media renderer (mpv, see renderer/mpv). A Player owns both
// and moves through a small state machine:
//
//	Uninitialized -> Initialized -> AudioOpen -> Playing <-> Stopped
//	                      ^______________ Reset ______________|
//
// Release is terminal from any state.
//
// # Quick Start
//
//	eng := pd.New(pd.Config{}, log)
//	ren := mpv.New(mpv.Config{}, log)
//	p := quadbinaural.New(eng, ren, quadbinaural.WithLogger(log))
//	defer p.Release()
//
//	if err := p.Initialize(ctx); err != nil {
//		return err
//	}
//	if err := p.Open(ctx, renderer.Path("clip.mp4"), "clip.wav"); err != nil {
//		return err
//	}
//	if err := p.Start(); err != nil {
//		return err
//	}
//
//	// For every head orientation sample:
//	_ = p.SetLookDirection(orientation.LookVector{X: x, Y: y, Z: z})
//
// # Concurrency
//
// A Player is not safe for concurrent use. Feed look vectors from the
// goroutine that owns the player, for example by draining
// headtrack.Server.Vectors in the same loop that handles user commands.
package quadbinaural
