// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations that need Initialize first.
	ErrNotInitialized = errors.New("engine: not initialized")

	// ErrReleased is returned after Release.
	ErrReleased = errors.New("engine: released")

	// ErrUnsupportedArg is returned when a message argument has no wire form.
	ErrUnsupportedArg = errors.New("engine: unsupported message argument")

	// ErrParams wraps every parameter validation failure.
	ErrParams = errors.New("engine: invalid params")
)

// ErrInvalidParams returns an error matching ErrParams with the reason attached.
func ErrInvalidParams(reason string) error {
	return fmt.Errorf("%w: %s", ErrParams, reason)
}
