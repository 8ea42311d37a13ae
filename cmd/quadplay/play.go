// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ik5/quadbinaural"
	"github.com/ik5/quadbinaural/config"
	"github.com/ik5/quadbinaural/engine/pd"
	"github.com/ik5/quadbinaural/headtrack"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/orientation"
	"github.com/ik5/quadbinaural/renderer"
	"github.com/ik5/quadbinaural/renderer/mpv"
	"github.com/ik5/quadbinaural/resource"
	"github.com/ik5/quadbinaural/staging"
)

const (
	pollPeriod      = time.Second
	shutdownTimeout = 3 * time.Second
)

type playOptions struct {
	video   string
	audio   string
	listen  string
	noStdin bool
}

func (o *playOptions) WithFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.video, "video", "", "video file or http(s), rtsp or file URI")
	fs.StringVar(&o.audio, "audio", "", "8-channel binaural track (wav, aiff, ogg)")
	fs.StringVar(&o.listen, "listen", "", "head tracking websocket address, overrides headtrack.listen")
	fs.BoolVar(&o.noStdin, "no-stdin", false, "do not read look vectors from stdin")
}

func newPlayCmd(root *rootOptions) *cobra.Command {
	opts := &playOptions{}

	cmd := &cobra.Command{
		Use:   "play --video <path|uri> --audio <file>",
		Short: "Play a video with its binaural track",
		Long: `Play starts Pure Data and mpv, opens both sources and plays until the video ends
or the process is interrupted. Look vectors are read from the head tracking
websocket feed and from stdin, one "x y z" triple or JSON frame per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			if opts.listen != "" {
				cfg.Headtrack.Listen = opts.listen
			}
			var in io.Reader = cmd.InOrStdin()
			if opts.noStdin {
				in = nil
			}
			return play(cmd.Context(), cfg, log, opts.video, opts.audio, in)
		},
	}
	opts.WithFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("audio")
	return cmd
}

func play(ctx context.Context, cfg *config.Config, log *logger.Logger, video, audio string, in io.Reader) error {
	prov := resource.NewProvisioner(cfg.Dir())
	opts := []quadbinaural.Option{
		quadbinaural.WithLogger(log),
		quadbinaural.WithProvisioner(prov),
		quadbinaural.WithParams(cfg.EngineParams()),
	}
	if !cfg.Audio.NoStaging {
		st := staging.New(cfg.StageDir(), log)
		st.Channels = cfg.Audio.Channels
		opts = append(opts, quadbinaural.WithStager(st))
	}

	p := quadbinaural.New(pd.New(cfg.Pd(), log), mpv.New(cfg.Mpv(prov), log), opts...)
	defer func() {
		if err := p.Release(); err != nil {
			log.Warn().Err(err).Msg("release")
		}
	}()

	if err := p.Initialize(ctx); err != nil {
		return err
	}
	if err := p.Open(ctx, videoSource(video), audio); err != nil {
		return err
	}

	var feed <-chan orientation.LookVector
	if cfg.Headtrack.Listen != "" {
		vectors, shutdown, err := serveHeadtrack(cfg.Headtrack, log)
		if err != nil {
			return err
		}
		defer shutdown()
		feed = vectors
	}

	var lines <-chan orientation.LookVector
	if in != nil {
		lines = readVectors(ctx, in, log)
	}

	if err := p.Start(); err != nil {
		return err
	}
	log.Info().Str("video", video).Str("audio", audio).Msg("playing")

	tick := time.NewTicker(pollPeriod)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("interrupted")
			return p.Stop()
		case v, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			if err := p.SetLookDirection(v); err != nil {
				return err
			}
		case v, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if err := p.SetLookDirection(v); err != nil {
				return err
			}
		case <-tick.C:
			if !p.IsPlaying() {
				log.Info().Msg("playback finished")
				return p.Stop()
			}
		}
	}
}

// videoSource treats anything with a scheme as a URI.
func videoSource(s string) renderer.Source {
	if strings.Contains(s, "://") {
		return renderer.URI(s)
	}
	return renderer.Path(s)
}

func serveHeadtrack(c config.Headtrack, log *logger.Logger) (<-chan orientation.LookVector, func(), error) {
	feed := headtrack.NewServer(c.Buffer, log)
	mux := http.NewServeMux()
	mux.Handle(c.Path, feed)

	srv := &http.Server{Addr: c.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	// Surface an immediate bind failure instead of playing without a feed.
	select {
	case err := <-errc:
		return nil, nil, fmt.Errorf("headtrack listen %s: %w", c.Listen, err)
	case <-time.After(100 * time.Millisecond):
	}
	log.Info().Str("addr", c.Listen).Str("path", c.Path).Msg("head tracking feed up")

	shutdown := func() {
		if err := feed.Close(); err != nil {
			log.Warn().Err(err).Msg("headtrack close")
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Msg("headtrack shutdown")
		}
	}
	return feed.Vectors(), shutdown, nil
}

// readVectors parses look vectors from r until EOF or ctx is done.
func readVectors(ctx context.Context, r io.Reader, log *logger.Logger) <-chan orientation.LookVector {
	out := make(chan orientation.LookVector)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			v, err := parseVector(line)
			if err != nil {
				log.Warn().Err(err).Str("line", line).Msg("skipping look vector")
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Warn().Err(err).Msg("reading look vectors")
		}
	}()
	return out
}

// parseVector accepts "x y z", "x,y,z" or a JSON frame.
func parseVector(line string) (orientation.LookVector, error) {
	if line[0] == '{' || line[0] == '[' {
		return headtrack.Decode([]byte(line))
	}

	fields := strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '\t' || r == ',' })
	comps := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return orientation.LookVector{}, fmt.Errorf("look vector: %w", err)
		}
		comps = append(comps, float32(v))
	}
	return orientation.FromSlice(comps)
}
