// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Handle identifies one loaded instance of a patch. Every OpenPatch call
// returns a handle distinct from all earlier ones, even for the same file.
type Handle struct {
	id   uuid.UUID
	path string
}

// NewHandle returns a fresh handle for the patch at path.
func NewHandle(path string) Handle {
	return Handle{id: uuid.New(), path: path}
}

// ID is the unique identity of the handle.
func (h Handle) ID() uuid.UUID { return h.id }

// Path is the patch file the handle was opened from.
func (h Handle) Path() string { return h.path }

// Name is the patch file name, e.g. quad_binaural.pd.
func (h Handle) Name() string { return filepath.Base(h.path) }

// Dir is the directory holding the patch file.
func (h Handle) Dir() string { return filepath.Dir(h.path) }

// IsZero reports whether h was never returned by OpenPatch.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }

func (h Handle) String() string {
	if h.IsZero() {
		return "<none>"
	}
	return h.Name() + "#" + h.id.String()[:8]
}
