// SPDX-License-Identifier: EPL-2.0

package renderer

import (
	"context"
	"time"
)

// Renderer decodes and presents video. Prepare may block on disk or network I/O.
type Renderer interface {
	// SetSource selects what the next Prepare loads.
	SetSource(ctx context.Context, src Source) error
	// Prepare loads the selected source, paused at position zero.
	Prepare(ctx context.Context) error
	Start() error
	Pause() error
	SeekTo(pos time.Duration) error
	IsPlaying() bool
	// Reset unloads the current source. The renderer stays usable.
	Reset() error
	// Release frees the renderer for good. It is idempotent.
	Release() error
}
