// SPDX-License-Identifier: EPL-2.0

package resource

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func TestProvisionPatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewProvisioner(dir)

	got, err := p.ProvisionPatch()
	if err != nil {
		t.Fatalf("ProvisionPatch() error = %v", err)
	}
	if got != filepath.Join(dir, PatchName) {
		t.Errorf("ProvisionPatch() = %q", got)
	}

	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read patch: %v", err)
	}
	if !strings.HasPrefix(string(data), "#N canvas") {
		t.Error("patch copy is not a Pd patch")
	}
	for _, recv := range []string{"r message", "r control", "r x", "r z", "readsf~ 8"} {
		if !strings.Contains(string(data), recv) {
			t.Errorf("patch is missing %q", recv)
		}
	}
}

func TestProvision_ReplacesStaleCopy(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stale := filepath.Join(dir, PatchName)
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewProvisioner(dir).ProvisionPatch()
	if err != nil {
		t.Fatalf("ProvisionPatch() error = %v", err)
	}
	data, _ := os.ReadFile(got)
	if string(data) == "stale" {
		t.Error("stale patch was not replaced")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the patch", len(entries))
	}
}

func TestProvision_NestedResource(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"video/intro.mp4": &fstest.MapFile{Data: []byte("not really a video")},
	}
	dir := filepath.Join(t.TempDir(), "nested", "work")

	got, err := NewProvisioner(dir).Provision(fsys, "video/intro.mp4")
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if filepath.Base(got) != "intro.mp4" {
		t.Errorf("Provision() = %q, want base intro.mp4", got)
	}
}

func TestProvision_Errors(t *testing.T) {
	t.Parallel()

	if _, err := NewProvisioner(t.TempDir()).Provision(fstest.MapFS{}, ""); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name error = %v, want ErrEmptyName", err)
	}
	if _, err := NewProvisioner("").ProvisionPatch(); !errors.Is(err, ErrNoDir) {
		t.Errorf("empty dir error = %v, want ErrNoDir", err)
	}
	if _, err := NewProvisioner(t.TempDir()).Provision(fstest.MapFS{}, "missing.pd"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing resource error = %v, want fs.ErrNotExist", err)
	}
}
