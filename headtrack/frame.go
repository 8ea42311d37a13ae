// SPDX-License-Identifier: EPL-2.0

package headtrack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ik5/quadbinaural/orientation"
)

var ErrFrame = errors.New("headtrack: malformed frame")

type frame struct {
	X *float32 `json:"x"`
	Y *float32 `json:"y"`
	Z *float32 `json:"z"`
}

// Decode parses one text frame. y may be omitted from the object form.
func Decode(data []byte) (orientation.LookVector, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return orientation.LookVector{}, ErrFrame
	}

	if data[0] == '[' {
		var xs []float32
		if err := json.Unmarshal(data, &xs); err != nil {
			return orientation.LookVector{}, fmt.Errorf("%w: %w", ErrFrame, err)
		}
		v, err := orientation.FromSlice(xs)
		if err != nil {
			return orientation.LookVector{}, fmt.Errorf("%w: %w", ErrFrame, err)
		}
		return v, nil
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return orientation.LookVector{}, fmt.Errorf("%w: %w", ErrFrame, err)
	}
	if f.X == nil || f.Z == nil {
		return orientation.LookVector{}, fmt.Errorf("%w: x and z are required", ErrFrame)
	}

	v := orientation.LookVector{X: *f.X, Z: *f.Z}
	if f.Y != nil {
		v.Y = *f.Y
	}
	return v, nil
}

// Encode is the object form Decode accepts.
func Encode(v orientation.LookVector) ([]byte, error) {
	return json.Marshal(frame{X: &v.X, Y: &v.Y, Z: &v.Z})
}
