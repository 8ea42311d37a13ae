// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ik5/quadbinaural/config"
	"github.com/ik5/quadbinaural/staging"
)

func newProbeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show the format of audio tracks and how they would be staged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := root.load()
			if err != nil {
				return err
			}
			return probe(cmd.OutOrStdout(), cfg, args)
		},
	}
}

// probe prints one line per track. Unreadable tracks are reported and make
// the command fail after every track was tried.
func probe(w io.Writer, cfg *config.Config, paths []string) error {
	st := staging.New(cfg.StageDir(), nil)
	st.Channels = cfg.Audio.Channels
	rate := cfg.Engine.SampleRate

	var errs []error
	for _, path := range paths {
		info, err := st.Registry.Probe(path)
		if err != nil {
			fmt.Fprintf(w, "%s: %v\n", path, err)
			errs = append(errs, err)
			continue
		}

		convert, err := st.Plan(info, rate)
		switch {
		case err != nil:
			fmt.Fprintf(w, "%s: %s, rejected: %v\n", path, info, err)
			errs = append(errs, err)
		case convert:
			fmt.Fprintf(w, "%s: %s, converted to 16-bit wav at %d Hz\n", path, info, rate)
		default:
			fmt.Fprintf(w, "%s: %s, played in place\n", path, info)
		}
	}
	return errors.Join(errs...)
}
