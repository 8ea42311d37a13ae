// SPDX-License-Identifier: EPL-2.0

package quadbinaural

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/resource"
	"github.com/ik5/quadbinaural/staging"
)

// PatchProvisioner copies the bundled patch somewhere the engine can open it
// and returns that path.
type PatchProvisioner interface {
	ProvisionPatch() (string, error)
}

// TrackStager turns an audio track into a file the engine can play at rate.
type TrackStager interface {
	Stage(ctx context.Context, path string, rate int) (staging.Staged, error)
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger. Nil keeps logging off.
func WithLogger(log *logger.Logger) Option {
	return func(p *Player) { p.log = logger.OrNop(log).Component("player") }
}

// WithProvisioner replaces the default provisioner, which writes into
// $TMPDIR/quadbinaural.
func WithProvisioner(pp PatchProvisioner) Option {
	return func(p *Player) { p.provisioner = pp }
}

// WithStager validates and converts audio tracks before they reach the
// engine. Without it tracks are handed over as given.
func WithStager(s TrackStager) Option {
	return func(p *Player) { p.stager = s }
}

// WithParams sets the engine parameters used by Initialize.
func WithParams(params engine.Params) Option {
	return func(p *Player) { p.params = params }
}

func defaultProvisioner() PatchProvisioner {
	return resource.NewProvisioner(filepath.Join(os.TempDir(), "quadbinaural"))
}
