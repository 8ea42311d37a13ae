// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"math"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ik5/quadbinaural/headtrack"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/orientation"
)

type lookOptions struct {
	url    string
	spin   time.Duration
	period time.Duration
}

func (o *lookOptions) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.url, "url", "ws://127.0.0.1:8090/look", "head tracking feed")
	fs.DurationVar(&o.spin, "spin", 0, "instead of reading stdin, turn a full circle in this time, repeatedly")
	fs.DurationVar(&o.period, "period", 33*time.Millisecond, "time between vectors when spinning")
}

func newLookCmd() *cobra.Command {
	opts := &lookOptions{}

	cmd := &cobra.Command{
		Use:   "look",
		Short: "Send look vectors to a running player's head tracking feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := headtrack.Dial(ctx, opts.url)
			if err != nil {
				return err
			}
			defer client.Close()

			var vectors <-chan orientation.LookVector
			if opts.spin > 0 {
				vectors = spin(ctx, opts.spin, opts.period)
			} else {
				vectors = readVectors(ctx, cmd.InOrStdin(), logger.NewConsole(false, "look", false))
			}

			for v := range vectors {
				if err := client.Send(v); err != nil {
					return err
				}
			}
			return nil
		},
	}
	opts.WithFlags(cmd.Flags())
	return cmd
}

// spin yields a heading turning around the listener once per turn until ctx
// is done.
func spin(ctx context.Context, turn, period time.Duration) <-chan orientation.LookVector {
	out := make(chan orientation.LookVector)
	go func() {
		defer close(out)
		tick := time.NewTicker(period)
		defer tick.Stop()

		start := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				a := 2 * math.Pi * float64(now.Sub(start)%turn) / float64(turn)
				v := orientation.LookVector{X: float32(math.Sin(a)), Z: float32(-math.Cos(a))}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
