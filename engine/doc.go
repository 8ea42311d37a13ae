// SPDX-License-Identifier: EPL-2.0

// Package engine defines the contract between the player and the embedded
// audio engine that runs the binaural patch.
//
// The engine is a dataflow synthesis runtime (Pure Data in package engine/pd).
// The player only ever drives it through this interface:
//
//	eng.Initialize(ctx, engine.DefaultParams())
//	h, _ := eng.OpenPatch(ctx, "/work/quad_binaural.pd")
//	eng.StartAudio(ctx)
//	eng.SendMessage(engine.ReceiverMessage, "open", "/media/track.wav")
//	eng.SendFloat(engine.ReceiverControl, 1)
//
// Control messages are fire and forget. The engine processes audio on its own
// real-time thread and never acknowledges them.
package engine
