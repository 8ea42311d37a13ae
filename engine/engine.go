// SPDX-License-Identifier: EPL-2.0

package engine

import "context"

// Receiver names understood by the bundled quad_binaural patch.
const (
	ReceiverX       = "x"
	ReceiverZ       = "z"
	ReceiverControl = "control"
	ReceiverMessage = "message"
)

// Params configures the engine audio I/O.
type Params struct {
	// SampleRate in Hz.
	SampleRate int
	// InputChannels is 0 for playback only.
	InputChannels int
	// OutputChannels feeds the binaural downmix, normally 2.
	OutputChannels int
	// TicksPerBuffer is the number of 64-sample DSP ticks per audio buffer.
	TicksPerBuffer int
	// Restart forces a running engine to be torn down and started again.
	Restart bool
}

// DefaultParams returns playback-only stereo parameters at 48 kHz.
func DefaultParams() Params {
	return Params{
		SampleRate:     48000,
		InputChannels:  0,
		OutputChannels: 2,
		TicksPerBuffer: 1,
		Restart:        true,
	}
}

// Validate reports the first invalid field.
func (p Params) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return ErrInvalidParams("sample rate must be positive")
	case p.InputChannels < 0:
		return ErrInvalidParams("input channels must not be negative")
	case p.OutputChannels <= 0:
		return ErrInvalidParams("output channels must be positive")
	case p.TicksPerBuffer <= 0:
		return ErrInvalidParams("ticks per buffer must be positive")
	}
	return nil
}

// BlockSize is the audio buffer size in frames.
func (p Params) BlockSize() int { return p.TicksPerBuffer * 64 }

// Engine is the embedded audio engine.
type Engine interface {
	// Initialize configures audio I/O. It is a no-op on a running engine unless
	// p.Restart is set.
	Initialize(ctx context.Context, p Params) error
	// OpenPatch loads a patch file and returns a fresh handle for it.
	OpenPatch(ctx context.Context, path string) (Handle, error)
	// ClosePatch unloads the patch. Closing a zero or unknown handle is a no-op.
	ClosePatch(h Handle) error
	// StartAudio turns DSP processing on.
	StartAudio(ctx context.Context) error
	// StopAudio turns DSP processing off.
	StopAudio() error
	// SendFloat pushes a float to a named receiver.
	SendFloat(receiver string, v float32) error
	// SendMessage pushes selector and args to a named receiver.
	// Args may be strings, floats or integers.
	SendMessage(receiver, selector string, args ...any) error
	// Release frees every engine resource. It is idempotent.
	Release() error
}
