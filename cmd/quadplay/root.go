// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ik5/quadbinaural/config"
	"github.com/ik5/quadbinaural/logger"
)

type rootOptions struct {
	config string
	debug  bool
}

func (o *rootOptions) WithFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.config, "config", "c", "", "config file (default: "+config.FileName+" in ., configs or ~/.quadbinaural)")
	fs.BoolVar(&o.debug, "debug", false, "debug logging, overrides log.debug")
}

// load reads the configuration and builds the logger it describes.
func (o *rootOptions) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(o.config)
	if err != nil {
		return nil, nil, err
	}
	if o.debug {
		cfg.Log.Debug = true
	}

	if cfg.Log.Console {
		return cfg, logger.NewConsole(cfg.Log.Debug, "quadplay", cfg.Log.NoColor), nil
	}
	return cfg, logger.New(cfg.Log.Debug), nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "quadplay",
		Short:        "Play video with head-tracked quad-binaural audio",
		Long:         `quadplay plays a video in mpv next to an 8-channel binaural track rendered by Pure Data, steering the sound direction from head orientation.`,
		Version:      Version,
		SilenceUsage: true,
	}
	opts.WithFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPlayCmd(opts),
		newProbeCmd(opts),
		newLookCmd(),
	)
	return cmd
}
