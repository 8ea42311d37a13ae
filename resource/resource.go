// SPDX-License-Identifier: EPL-2.0

package resource

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// PatchName is the file name of the bundled binaural patch.
const PatchName = "quad_binaural.pd"

//go:embed quad_binaural.pd
var bundled embed.FS

var (
	ErrEmptyName = errors.New("resource: empty resource name")
	ErrNoDir     = errors.New("resource: no target directory")
)

// Bundled returns the file system holding the bundled resources.
func Bundled() fs.FS { return bundled }

// Provisioner copies resources into Dir.
type Provisioner struct {
	Dir string
}

// NewProvisioner returns a provisioner writing into dir.
func NewProvisioner(dir string) *Provisioner {
	return &Provisioner{Dir: dir}
}

// ProvisionPatch replaces any previous copy of the bundled patch and returns
// the path of the fresh copy.
func (p *Provisioner) ProvisionPatch() (string, error) {
	return p.Provision(bundled, PatchName)
}

// Provision copies name from fsys into Dir, replacing an existing file of the
// same base name, and returns the target path.
func (p *Provisioner) Provision(fsys fs.FS, name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if p.Dir == "" {
		return "", ErrNoDir
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", p.Dir, err)
	}

	target := filepath.Join(p.Dir, path.Base(name))
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("remove stale %s: %w", target, err)
	}

	src, err := fsys.Open(name)
	if err != nil {
		return "", fmt.Errorf("open resource %s: %w", name, err)
	}
	defer src.Close()

	// Write to a temp file first so a failed copy never leaves a truncated target.
	tmp, err := os.CreateTemp(p.Dir, "."+path.Base(name)+".*")
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("copy %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("install %s: %w", target, err)
	}

	return target, nil
}
