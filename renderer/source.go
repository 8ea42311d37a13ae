// SPDX-License-Identifier: EPL-2.0

package renderer

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
)

var (
	ErrEmptySource = errors.New("renderer: empty source")
	ErrBadURI      = errors.New("renderer: unsupported URI")
	ErrNoExtractor = errors.New("renderer: resource source needs an extractor")
)

// Source is a video location. The set of variants is closed: Path, URI and Resource.
type Source interface {
	fmt.Stringer
	source()
}

// Path is a file on the local file system.
type Path string

// URI is a network or file URI. Schemes: http, https, rtsp, file.
type URI string

// Resource is a file inside a bundled file system.
type Resource struct {
	FS   fs.FS
	Name string
}

func (Path) source()     {}
func (URI) source()      {}
func (Resource) source() {}

func (p Path) String() string     { return string(p) }
func (u URI) String() string      { return string(u) }
func (r Resource) String() string { return "resource:" + r.Name }

// Extractor copies a bundled file somewhere the renderer can open it.
type Extractor interface {
	Provision(fsys fs.FS, name string) (string, error)
}

var uriSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"rtsp":  true,
	"file":  true,
}

// Locate turns src into a single location string: an absolute path for Path
// and Resource, the URI itself for URI. ex is only used for Resource.
func Locate(src Source, ex Extractor) (string, error) {
	switch s := src.(type) {
	case Path:
		if s == "" {
			return "", ErrEmptySource
		}
		abs, err := filepath.Abs(string(s))
		if err != nil {
			return "", fmt.Errorf("%w", err)
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("video %s: %w", abs, err)
		}
		return abs, nil

	case URI:
		if s == "" {
			return "", ErrEmptySource
		}
		u, err := url.Parse(string(s))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrBadURI, err)
		}
		if !uriSchemes[u.Scheme] {
			return "", fmt.Errorf("%w: scheme %q", ErrBadURI, u.Scheme)
		}
		return u.String(), nil

	case Resource:
		if s.FS == nil || s.Name == "" {
			return "", ErrEmptySource
		}
		if ex == nil {
			return "", ErrNoExtractor
		}
		return ex.Provision(s.FS, s.Name)

	case nil:
		return "", ErrEmptySource

	default:
		return "", fmt.Errorf("renderer: unknown source %T", src)
	}
}
