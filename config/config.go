// SPDX-License-Identifier: EPL-2.0

// Package config loads player settings from a YAML file and QUADBIN_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/engine/pd"
	"github.com/ik5/quadbinaural/renderer"
	"github.com/ik5/quadbinaural/renderer/mpv"
)

const (
	EnvPrefix = "QUADBIN"
	FileName  = "quadplay.yaml"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Engine    Engine    `fig:"engine"`
	Renderer  Renderer  `fig:"renderer"`
	Audio     Audio     `fig:"audio"`
	Headtrack Headtrack `fig:"headtrack"`
	Log       Log       `fig:"log"`
	// WorkDir receives the patch copy and the Pd bootstrap.
	WorkDir string `fig:"work_dir"`
}

// Engine configures Pure Data. Booleans are phrased so that false is the default.
type Engine struct {
	Binary         string        `fig:"binary" default:"pd"`
	Address        string        `fig:"address" default:"127.0.0.1:3000"`
	External       bool          `fig:"external"`
	SampleRate     int           `fig:"sample_rate" default:"48000"`
	InputChannels  int           `fig:"input_channels"`
	OutputChannels int           `fig:"output_channels" default:"2"`
	TicksPerBuffer int           `fig:"ticks_per_buffer" default:"1"`
	NoRestart      bool          `fig:"no_restart"`
	DialTimeout    time.Duration `fig:"dial_timeout" default:"5s"`
	Flags          []string      `fig:"flags"`
}

type Renderer struct {
	Binary   string        `fig:"binary" default:"mpv"`
	Socket   string        `fig:"socket"`
	External bool          `fig:"external"`
	Args     []string      `fig:"args"`
	Timeout  time.Duration `fig:"timeout" default:"10s"`
}

type Audio struct {
	Channels int `fig:"channels" default:"8"`
	// StageDir receives converted tracks; WorkDir when empty.
	StageDir  string `fig:"stage_dir"`
	NoStaging bool   `fig:"no_staging"`
}

type Headtrack struct {
	// Listen is the feed address; the feed is off when empty.
	Listen string `fig:"listen"`
	Path   string `fig:"path" default:"/look"`
	Buffer int    `fig:"buffer" default:"4"`
}

type Log struct {
	Debug   bool `fig:"debug"`
	Console bool `fig:"console"`
	NoColor bool `fig:"no_color"`
}

// Load reads path, or searches ".", "configs" and $HOME/.quadbinaural for
// quadplay.yaml when path is empty, then applies the environment. Without an
// explicit path a missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	var opts []fig.Option
	if path != "" {
		opts = append(opts, fig.File(filepath.Base(path)), fig.Dirs(filepath.Dir(path)))
	} else {
		dirs := []string{".", "configs"}
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, filepath.Join(home, ".quadbinaural"))
		}
		opts = append(opts, fig.File(FileName), fig.Dirs(dirs...))
	}
	opts = append(opts, fig.UseEnv(EnvPrefix))

	err := fig.Load(&cfg, opts...)
	if path == "" && errors.Is(err, fig.ErrFileNotFound) {
		return LoadEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, cfg.Validate()
}

// LoadEnv builds the configuration from defaults and the environment only.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := fig.Load(&cfg, fig.IgnoreFile(), fig.UseEnv(EnvPrefix)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	if err := c.EngineParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	check(c.Engine.Address != "", "engine.address is empty")
	check(c.Engine.DialTimeout > 0, "engine.dial_timeout %v", c.Engine.DialTimeout)
	check(c.Renderer.Timeout > 0, "renderer.timeout %v", c.Renderer.Timeout)
	check(c.Audio.Channels > 0, "audio.channels %d", c.Audio.Channels)
	check(c.Headtrack.Buffer > 0, "headtrack.buffer %d", c.Headtrack.Buffer)
	check(c.Headtrack.Listen == "" || len(c.Headtrack.Path) > 0 && c.Headtrack.Path[0] == '/',
		"headtrack.path %q must start with /", c.Headtrack.Path)

	return errors.Join(errs...)
}

// Dir is WorkDir, or a quadbinaural directory under the system temp dir.
func (c *Config) Dir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return filepath.Join(os.TempDir(), "quadbinaural")
}

// StageDir is where converted tracks go.
func (c *Config) StageDir() string {
	if c.Audio.StageDir != "" {
		return c.Audio.StageDir
	}
	return filepath.Join(c.Dir(), "staged")
}

func (c *Config) EngineParams() engine.Params {
	return engine.Params{
		SampleRate:     c.Engine.SampleRate,
		InputChannels:  c.Engine.InputChannels,
		OutputChannels: c.Engine.OutputChannels,
		TicksPerBuffer: c.Engine.TicksPerBuffer,
		Restart:        !c.Engine.NoRestart,
	}
}

func (c *Config) Pd() pd.Config {
	return pd.Config{
		Binary:      c.Engine.Binary,
		Address:     c.Engine.Address,
		External:    c.Engine.External,
		WorkDir:     c.Dir(),
		Flags:       c.Engine.Flags,
		DialTimeout: c.Engine.DialTimeout,
	}
}

// Mpv maps the renderer section; ex resolves bundled video resources.
func (c *Config) Mpv(ex renderer.Extractor) mpv.Config {
	return mpv.Config{
		Binary:    c.Renderer.Binary,
		Socket:    c.Renderer.Socket,
		External:  c.Renderer.External,
		Args:      c.Renderer.Args,
		Timeout:   c.Renderer.Timeout,
		Extractor: ex,
	}
}
