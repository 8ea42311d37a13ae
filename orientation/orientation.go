// SPDX-License-Identifier: EPL-2.0

package orientation

import (
	"fmt"
	"math"
)

// MinHorizontal is the smallest horizontal magnitude that still yields a heading.
const MinHorizontal = 0.001

// LookVector is a caller supplied head direction. It does not need to be normalized.
type LookVector struct {
	X, Y, Z float32
}

// FromSlice builds a LookVector from a 3-element slice in [x, y, z] order.
func FromSlice(v []float32) (LookVector, error) {
	if len(v) != 3 {
		return LookVector{}, fmt.Errorf("%w: got %d components", ErrComponents, len(v))
	}

	return LookVector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Horizontal returns the magnitude of the vector projected on the x-z plane.
// It is +Inf when the magnitude does not fit a float32.
func (v LookVector) Horizontal() float32 {
	return float32(v.horizontal())
}

func (v LookVector) horizontal() float64 {
	return math.Hypot(float64(v.X), float64(v.Z))
}

func (v LookVector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

// Control is the normalized horizontal heading sent to the engine as two
// independent float receivers.
type Control struct {
	X, Z float32
}

func (c Control) String() string {
	return fmt.Sprintf("x=%g z=%g", c.X, c.Z)
}

// Compute returns the unit heading of v in the x-z plane.
// ok is false when the horizontal magnitude is at or below MinHorizontal, or
// when x or z is NaN or infinite.
func Compute(v LookVector) (ctrl Control, ok bool) {
	dist := v.horizontal()
	if !(dist > MinHorizontal) || math.IsInf(dist, 0) {
		return Control{}, false
	}

	return Control{X: float32(float64(v.X) / dist), Z: float32(float64(v.Z) / dist)}, true
}
