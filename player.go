// SPDX-License-Identifier: EPL-2.0

package quadbinaural

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/orientation"
	"github.com/ik5/quadbinaural/renderer"
	"github.com/ik5/quadbinaural/staging"
)

// Player drives an audio engine and a video renderer as one playback unit.
// It is not safe for concurrent use.
type Player struct {
	engine   engine.Engine
	renderer renderer.Renderer
	log      *logger.Logger

	provisioner PatchProvisioner
	stager      TrackStager
	params      engine.Params

	state   State
	patch   string
	handle  engine.Handle
	track   staging.Staged
	video   bool
	control orientation.Control
	steered bool
}

// New returns an uninitialized player that owns eng and ren.
func New(eng engine.Engine, ren renderer.Renderer, opts ...Option) *Player {
	p := &Player{
		engine:   eng,
		renderer: ren,
		log:      logger.Nop(),
		params:   engine.DefaultParams(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.provisioner == nil {
		p.provisioner = defaultProvisioner()
	}
	return p
}

// State returns the current lifecycle state.
func (p *Player) State() State { return p.state }

// Handle returns the engine handle of the open track, or a zero handle.
func (p *Player) Handle() engine.Handle { return p.handle }

// Renderer exposes the video renderer, e.g. to query playback directly.
func (p *Player) Renderer() renderer.Renderer { return p.renderer }

// Control returns the last heading sent to the engine. ok is false until a
// look vector with a usable horizontal component arrives.
func (p *Player) Control() (ctrl orientation.Control, ok bool) {
	return p.control, p.steered
}

// IsPlaying reports whether playback is running. With a video attached the
// renderer has the final word.
func (p *Player) IsPlaying() bool {
	if p.state != Playing {
		return false
	}
	if p.video {
		return p.renderer.IsPlaying()
	}
	return true
}

// Initialize provisions the patch and starts the engine with the parameters
// given to New. It does nothing once the player is initialized.
func (p *Player) Initialize(ctx context.Context) error {
	return p.InitializeWith(ctx, p.params)
}

// InitializeWith is Initialize with explicit engine parameters.
func (p *Player) InitializeWith(ctx context.Context, params engine.Params) error {
	switch p.state {
	case Released:
		return ErrAlreadyReleased
	case Uninitialized:
	default:
		return nil
	}

	patch, err := p.provisioner.ProvisionPatch()
	if err != nil {
		return &SourceError{Op: "provision patch", Err: err}
	}
	if err := p.engine.Initialize(ctx, params); err != nil {
		return &EngineError{Op: "initialize", Err: err}
	}

	p.patch = patch
	p.params = params
	p.setState(Initialized)
	return nil
}

// OpenAudio loads an 8-channel binaural track. An already open track is
// closed first. On failure the track is rolled back and the player stays
// usable.
func (p *Player) OpenAudio(ctx context.Context, path string) error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state == Playing {
		return ErrBusy
	}

	if !p.handle.IsZero() {
		if err := p.closeAudio(); err != nil {
			p.log.Warn().Err(err).Msg("closing previous track")
		}
	}

	if err := p.openAudio(ctx, path); err != nil {
		p.log.Error().Err(err).Str("path", path).Msg("audio open failed, rolling back")
		if cerr := p.closeAudio(); cerr != nil {
			p.log.Warn().Err(cerr).Msg("rollback")
		}
		p.settle()
		return err
	}

	p.log.Info().Str("path", p.track.Path).Stringer("handle", p.handle).Msg("audio open")
	p.setState(AudioOpen)
	return nil
}

// openAudio starts DSP before the load message; the patch only accepts it
// while audio is running.
func (p *Player) openAudio(ctx context.Context, path string) error {
	track, err := p.stage(ctx, path)
	if err != nil {
		return &SourceError{Op: "open audio", Err: err}
	}
	p.track = track

	h, err := p.engine.OpenPatch(ctx, p.patch)
	if err != nil {
		return &EngineError{Op: "open patch", Err: err}
	}
	p.handle = h

	if err := p.engine.StartAudio(ctx); err != nil {
		return &EngineError{Op: "start audio", Err: err}
	}
	if err := p.engine.SendMessage(engine.ReceiverMessage, "open", track.Path); err != nil {
		return &EngineError{Op: "load track", Err: err}
	}

	// A fresh patch starts facing forward; restore the last heading.
	if p.steered {
		if err := p.sendControl(p.control); err != nil {
			return &EngineError{Op: "restore look direction", Err: err}
		}
	}
	return nil
}

func (p *Player) stage(ctx context.Context, path string) (staging.Staged, error) {
	if p.stager != nil {
		return p.stager.Stage(ctx, path, p.params.SampleRate)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return staging.Staged{}, fmt.Errorf("%w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return staging.Staged{}, fmt.Errorf("audio %s: %w", abs, err)
	}
	return staging.Staged{Path: abs}, nil
}

// closeAudio closes the patch, stops DSP and drops a staged copy.
func (p *Player) closeAudio() error {
	var errs []error

	if !p.handle.IsZero() {
		if err := p.engine.ClosePatch(p.handle); err != nil {
			errs = append(errs, &EngineError{Op: "close patch", Err: err})
		}
		p.handle = engine.Handle{}
	}
	if err := p.engine.StopAudio(); err != nil {
		errs = append(errs, &EngineError{Op: "stop audio", Err: err})
	}
	if err := p.track.Remove(); err != nil {
		errs = append(errs, &SourceError{Op: "remove staged track", Err: err})
	}
	p.track = staging.Staged{}

	return errors.Join(errs...)
}

// OpenVideo attaches a video source, replacing any attached one. While
// playing, the new source starts right away.
func (p *Player) OpenVideo(ctx context.Context, src renderer.Source) error {
	if err := p.ready(); err != nil {
		return err
	}

	playing := p.state == Playing
	if p.video {
		if err := p.renderer.Reset(); err != nil {
			p.log.Warn().Err(err).Msg("resetting renderer")
		}
		p.video = false
	}

	if err := p.attachVideo(ctx, src, playing); err != nil {
		p.log.Error().Err(err).Stringer("video", src).Msg("video open failed")
		if rerr := p.renderer.Reset(); rerr != nil {
			p.log.Warn().Err(rerr).Msg("rollback")
		}
		p.settle()
		return err
	}

	p.video = true
	p.log.Info().Stringer("video", src).Msg("video attached")
	if !playing {
		p.setState(AudioOpen)
	}
	return nil
}

func (p *Player) attachVideo(ctx context.Context, src renderer.Source, playing bool) error {
	if err := p.renderer.SetSource(ctx, src); err != nil {
		return &SourceError{Op: "open video", Err: err}
	}
	if err := p.renderer.Prepare(ctx); err != nil {
		return &SourceError{Op: "prepare video", Err: err}
	}
	if playing {
		if err := p.renderer.Start(); err != nil {
			return &SourceError{Op: "start video", Err: err}
		}
	}
	return nil
}

// Open attaches audio then video. Any collaborator failure resets the player
// before the error is returned.
func (p *Player) Open(ctx context.Context, video renderer.Source, audio string) error {
	if err := p.OpenAudio(ctx, audio); err != nil {
		return p.abort(err)
	}
	if err := p.OpenVideo(ctx, video); err != nil {
		return p.abort(err)
	}
	return nil
}

func (p *Player) abort(err error) error {
	var (
		serr *SourceError
		eerr *EngineError
	)
	if !errors.As(err, &serr) && !errors.As(err, &eerr) {
		return err
	}
	if rerr := p.Reset(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

// Start begins playback: the renderer starts, then the patch output is
// enabled. An open audio track is required.
func (p *Player) Start() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state == Playing {
		return nil
	}
	if p.handle.IsZero() {
		return ErrNoSource
	}

	if p.video {
		if err := p.renderer.Start(); err != nil {
			return &SourceError{Op: "start video", Err: err}
		}
	}
	if err := p.engine.SendFloat(engine.ReceiverControl, 1); err != nil {
		if p.video {
			if perr := p.renderer.Pause(); perr != nil {
				p.log.Warn().Err(perr).Msg("pausing renderer after engine failure")
			}
		}
		return &EngineError{Op: "start", Err: err}
	}

	p.setState(Playing)
	return nil
}

// Stop pauses the renderer, rewinds it to the start and mutes the patch.
func (p *Player) Stop() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state == Initialized || p.state == Stopped {
		return nil
	}

	var errs []error
	if p.video {
		if err := p.renderer.Pause(); err != nil {
			errs = append(errs, &SourceError{Op: "pause video", Err: err})
		}
		if err := p.renderer.SeekTo(0); err != nil {
			errs = append(errs, &SourceError{Op: "rewind video", Err: err})
		}
	}
	if !p.handle.IsZero() {
		if err := p.engine.SendFloat(engine.ReceiverControl, 0); err != nil {
			errs = append(errs, &EngineError{Op: "stop", Err: err})
		}
	}

	p.setState(Stopped)
	return errors.Join(errs...)
}

// Reset closes the track and unloads the video, leaving the player ready for
// a new pair. Resetting an initialized player does nothing.
func (p *Player) Reset() error {
	if err := p.ready(); err != nil {
		return err
	}
	if p.state == Initialized {
		return nil
	}

	var errs []error
	if err := p.closeAudio(); err != nil {
		errs = append(errs, err)
	}
	if p.video {
		if err := p.renderer.Reset(); err != nil {
			errs = append(errs, &SourceError{Op: "reset video", Err: err})
		}
		p.video = false
	}

	p.setState(Initialized)
	return errors.Join(errs...)
}

// Release frees the engine and the renderer. The player is unusable
// afterwards; further calls to Release return nil.
func (p *Player) Release() error {
	if p.state == Released {
		return nil
	}

	var errs []error
	if err := p.track.Remove(); err != nil {
		errs = append(errs, &SourceError{Op: "remove staged track", Err: err})
	}
	if err := p.engine.Release(); err != nil {
		errs = append(errs, &EngineError{Op: "release", Err: err})
	}
	if err := p.renderer.Release(); err != nil {
		errs = append(errs, &SourceError{Op: "release renderer", Err: err})
	}

	p.handle = engine.Handle{}
	p.track = staging.Staged{}
	p.video = false
	p.setState(Released)
	return errors.Join(errs...)
}

// SetLookDirection steers the binaural mix towards v. Vectors without a
// usable horizontal heading leave the previous control in effect. When z
// cannot be sent, x is put back to the previous heading so the patch never
// holds half of a new one.
func (p *Player) SetLookDirection(v orientation.LookVector) error {
	if err := p.ready(); err != nil {
		return err
	}

	ctrl, ok := orientation.Compute(v)
	if !ok {
		return nil
	}
	if err := p.sendControl(ctrl); err != nil {
		return &EngineError{Op: "look direction", Err: err}
	}

	p.control = ctrl
	p.steered = true
	return nil
}

func (p *Player) sendControl(ctrl orientation.Control) error {
	if err := p.engine.SendFloat(engine.ReceiverX, ctrl.X); err != nil {
		return err
	}
	if err := p.engine.SendFloat(engine.ReceiverZ, ctrl.Z); err != nil {
		if p.steered {
			if rerr := p.engine.SendFloat(engine.ReceiverX, p.control.X); rerr != nil {
				return errors.Join(err, rerr)
			}
		}
		return err
	}
	return nil
}

func (p *Player) ready() error {
	switch p.state {
	case Released:
		return ErrAlreadyReleased
	case Uninitialized:
		return ErrNotInitialized
	}
	return nil
}

// settle picks the resting state after a failed open.
func (p *Player) settle() {
	switch {
	case p.state == Playing:
	case !p.handle.IsZero() || p.video:
		p.setState(AudioOpen)
	default:
		p.setState(Initialized)
	}
}

func (p *Player) setState(s State) {
	if s == p.state {
		return
	}
	p.log.Debug().Stringer("from", p.state).Stringer("to", s).Msg("state")
	p.state = s
}
