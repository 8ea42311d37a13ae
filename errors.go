// SPDX-License-Identifier: EPL-2.0

package quadbinaural

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by operations that need Initialize, or an
	// open source, first.
	ErrNotInitialized = errors.New("quadbinaural: not initialized")

	// ErrNoSource is returned by Start when no audio track is open. It matches
	// ErrNotInitialized.
	ErrNoSource = fmt.Errorf("%w: no audio source open", ErrNotInitialized)

	// ErrAlreadyReleased is returned by every operation after Release except
	// Release itself.
	ErrAlreadyReleased = errors.New("quadbinaural: already released")

	// ErrBusy is returned by OpenAudio while playing.
	ErrBusy = errors.New("quadbinaural: busy playing")
)

// SourceError reports a renderer or track failure while opening or driving a source.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return "quadbinaural: " + e.Op + ": " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }

// EngineError reports an audio engine failure.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string {
	return "quadbinaural: engine " + e.Op + ": " + e.Err.Error()
}

func (e *EngineError) Unwrap() error { return e.Err }
