// SPDX-License-Identifier: EPL-2.0

package staging

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ik5/quadbinaural/audio"
	"github.com/ik5/quadbinaural/formats/aiff"
	"github.com/ik5/quadbinaural/formats/mp3"
	"github.com/ik5/quadbinaural/formats/vorbis"
	"github.com/ik5/quadbinaural/formats/wav"
	"github.com/ik5/quadbinaural/logger"
)

// QuadChannels is the channel count of a quad-binaural track.
const QuadChannels = 8

var (
	ErrUnsupportedFormat = errors.New("staging: unsupported audio format")
	ErrChannelCount      = errors.New("staging: wrong channel count")
	ErrBadRate           = errors.New("staging: invalid sample rate")
)

// DefaultRegistry knows every container the formats packages decode.
func DefaultRegistry() *audio.Registry {
	reg := audio.NewRegistry()
	for _, ext := range []string{"wav", "wave"} {
		reg.Register(ext, wav.Decoder{})
	}
	for _, ext := range []string{"aiff", "aif"} {
		reg.Register(ext, aiff.Decoder{})
	}
	for _, ext := range []string{"ogg", "oga"} {
		reg.Register(ext, vorbis.Decoder{})
	}
	reg.Register("mp3", mp3.Decoder{})
	return reg
}

// Staged is a track ready for the engine.
type Staged struct {
	// Path is what the patch should open.
	Path string
	// Info describes the source track. Frames is only counted for
	// converted tracks.
	Info audio.Info
	// Converted is set when Path is a file written by the Stager.
	Converted bool
}

// Remove deletes a converted file; it does nothing for tracks used in place.
func (s Staged) Remove() error {
	if !s.Converted || s.Path == "" {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("staging: %w", err)
	}
	return nil
}

// Stager validates tracks and converts those the engine cannot stream.
type Stager struct {
	Registry *audio.Registry
	// Dir receives converted files. os.TempDir when empty.
	Dir string
	// Channels every track must have.
	Channels int
	// Native lists formats readsf~ streams directly.
	Native map[string]bool

	log *logger.Logger
}

func New(dir string, log *logger.Logger) *Stager {
	return &Stager{
		Registry: DefaultRegistry(),
		Dir:      dir,
		Channels: QuadChannels,
		Native:   map[string]bool{"wav": true, "wave": true, "aiff": true, "aif": true},
		log:      logger.OrNop(log).Component("staging"),
	}
}

// Stage checks path and returns a file the engine can play at rate.
func (s *Stager) Stage(ctx context.Context, path string, rate int) (Staged, error) {
	if rate <= 0 {
		return Staged{}, fmt.Errorf("%w: %d", ErrBadRate, rate)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Staged{}, fmt.Errorf("staging: %w", err)
	}

	format, _, err := s.Registry.Lookup(abs)
	if err != nil {
		return Staged{}, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	src, err := s.Registry.Open(abs)
	if err != nil {
		return Staged{}, err
	}
	defer src.Close()

	info := audio.Info{Format: format, SampleRate: src.SampleRate(), Channels: src.Channels()}
	convert, err := s.Plan(info, rate)
	if err != nil {
		return Staged{}, fmt.Errorf("%w (%s)", err, filepath.Base(abs))
	}

	if !convert {
		s.log.Debug().Str("path", abs).Str("format", format).Msg("track used in place")
		return Staged{Path: abs, Info: info}, nil
	}

	out, frames, err := s.convert(ctx, abs, src, rate)
	if err != nil {
		return Staged{}, err
	}
	info.Frames = frames

	s.log.Info().
		Str("path", abs).
		Str("staged", out).
		Str("format", format).
		Int("from", info.SampleRate).
		Int("to", rate).
		Int64("frames", frames).
		Msg("track converted")
	return Staged{Path: out, Info: info, Converted: true}, nil
}

// Plan reports whether a track described by info needs converting before
// the engine can play it at rate. Tracks with the wrong layout are rejected.
func (s *Stager) Plan(info audio.Info, rate int) (convert bool, err error) {
	if rate <= 0 {
		return false, fmt.Errorf("%w: %d", ErrBadRate, rate)
	}
	if info.Channels != s.Channels {
		return false, fmt.Errorf("%w: %d, want %d", ErrChannelCount, info.Channels, s.Channels)
	}
	return !s.Native[info.Format] || info.SampleRate != rate, nil
}

func (s *Stager) convert(ctx context.Context, path string, src audio.Source, rate int) (string, int64, error) {
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("staging: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tmp, err := os.CreateTemp(dir, base+"-*.tmp")
	if err != nil {
		return "", 0, fmt.Errorf("staging: %w", err)
	}
	tmpName := tmp.Name()

	frames, err := wav.Write(tmp, &ctxSource{Source: audio.Resample(src, rate), ctx: ctx})
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return "", 0, fmt.Errorf("staging: convert %s: %w", filepath.Base(path), err)
	}

	out := filepath.Join(dir, fmt.Sprintf("%s.%d.wav", base, rate))
	if err := os.Rename(tmpName, out); err != nil {
		_ = os.Remove(tmpName)
		return "", 0, fmt.Errorf("staging: %w", err)
	}
	return out, frames, nil
}

// ctxSource stops a conversion once ctx is done.
type ctxSource struct {
	audio.Source
	ctx context.Context
}

func (c *ctxSource) ReadSamples(dst []float32) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.Source.ReadSamples(dst)
}
