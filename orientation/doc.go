// SPDX-License-Identifier: EPL-2.0

// Package orientation maps a head look direction onto the two control values
// that steer the binaural patch.
//
// The listener's look vector uses a right-handed frame:
//   - +x points right
//   - +y points up (ignored by the mapping)
//   - +z points forward
//
// Only the horizontal heading matters. Compute projects the vector onto the
// x-z plane and normalizes it:
//
//	ctrl, ok := orientation.Compute(orientation.LookVector{X: 1, Y: 0.2, Z: 1})
//	if ok {
//	    // ctrl.X == ctrl.Z == 0.7071...
//	}
//
// When the horizontal magnitude is at or below MinHorizontal the heading is
// undefined (the listener looks straight up or down) and Compute reports no
// control, so callers keep whatever control they last emitted.
package orientation
