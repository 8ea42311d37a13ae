// SPDX-License-Identifier: EPL-2.0

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ik5/quadbinaural/config"
	"github.com/ik5/quadbinaural/formats/wav"
	"github.com/ik5/quadbinaural/internal/audiotest"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/orientation"
	"github.com/ik5/quadbinaural/renderer"
	"github.com/ik5/quadbinaural/staging"
)

func TestParseVector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line    string
		want    orientation.LookVector
		wantErr bool
	}{
		{line: "1 0 0", want: orientation.LookVector{X: 1}},
		{line: "0.5\t-2\t0.25", want: orientation.LookVector{X: 0.5, Y: -2, Z: 0.25}},
		{line: "1,2,3", want: orientation.LookVector{X: 1, Y: 2, Z: 3}},
		{line: `{"x":0,"y":1,"z":-1}`, want: orientation.LookVector{Y: 1, Z: -1}},
		{line: "[3,0,4]", want: orientation.LookVector{X: 3, Z: 4}},
		{line: "1 2", wantErr: true},
		{line: "a b c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, err := parseVector(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestReadVectors(t *testing.T) {
	t.Parallel()

	in := strings.NewReader("# heading\n1 0 0\n\nbogus\n0 0 -1\n")
	var got []orientation.LookVector
	for v := range readVectors(context.Background(), in, logger.Nop()) {
		got = append(got, v)
	}
	require.Equal(t, []orientation.LookVector{{X: 1}, {Z: -1}}, got)
}

func TestVideoSource(t *testing.T) {
	t.Parallel()

	require.Equal(t, renderer.URI("https://example.com/a.mp4"), videoSource("https://example.com/a.mp4"))
	require.Equal(t, renderer.Path("clips/a.mp4"), videoSource("clips/a.mp4"))
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	native := filepath.Join(dir, "native.wav")
	foreign := filepath.Join(dir, "foreign.wav")
	stereo := filepath.Join(dir, "stereo.wav")

	for path, src := range map[string]*audiotest.Source{
		native:  audiotest.Silence(48000, staging.QuadChannels, 480),
		foreign: audiotest.Silence(44100, staging.QuadChannels, 441),
		stereo:  audiotest.Silence(48000, 2, 480),
	} {
		_, err := wav.WriteFile(path, src)
		require.NoError(t, err)
	}

	t.Setenv(config.EnvPrefix+"_ENGINE_SAMPLE_RATE", "48000")
	cfg, err := config.LoadEnv()
	require.NoError(t, err)

	var out bytes.Buffer
	err = probe(&out, cfg, []string{native, foreign, stereo, filepath.Join(dir, "notes.txt")})
	require.ErrorIs(t, err, staging.ErrChannelCount)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, native+": wav 48000 Hz 8 ch 10ms, played in place", lines[0])
	require.Equal(t, foreign+": wav 44100 Hz 8 ch 10ms, converted to 16-bit wav at 48000 Hz", lines[1])
	require.Contains(t, lines[2], "rejected")
	require.True(t, strings.HasPrefix(lines[3], filepath.Join(dir, "notes.txt")+": "))
}

func TestSpin(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	vectors := spin(ctx, time.Second, time.Millisecond)
	for range 5 {
		v := <-vectors
		h := v.Horizontal()
		require.InDelta(t, 1, h, 1e-5)
	}
	cancel()
	for range vectors {
	}
}

func TestRootCommands(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"play", "probe", "look"})
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}
