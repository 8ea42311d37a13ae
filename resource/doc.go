// SPDX-License-Identifier: EPL-2.0

// Package resource provisions bundled files to a writable directory.
//
// The engine can only open patches from the file system, and some renderers
// can only open local files, so bundled resources are copied out before use:
//
//	p := resource.NewProvisioner("/var/lib/quadplay")
//	patchPath, err := p.ProvisionPatch()
//
// The bundled quad_binaural.pd patch reads an 8-channel file (pairs for front,
// right, back and left) and mixes it to stereo from the x and z heading
// receivers. Playback is gated by the control receiver.
package resource
