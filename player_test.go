// SPDX-License-Identifier: EPL-2.0

package quadbinaural

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/formats/wav"
	"github.com/ik5/quadbinaural/internal/audiotest"
	"github.com/ik5/quadbinaural/internal/playertest"
	"github.com/ik5/quadbinaural/orientation"
	"github.com/ik5/quadbinaural/renderer"
	"github.com/ik5/quadbinaural/resource"
	"github.com/ik5/quadbinaural/staging"
)

type rig struct {
	dir string
	log *playertest.Log
	eng *playertest.Engine
	ren *playertest.Renderer
	p   *Player
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()

	dir := t.TempDir()
	log := &playertest.Log{}
	r := &rig{
		dir: dir,
		log: log,
		eng: playertest.NewEngine(log),
		ren: playertest.NewRenderer(log),
	}
	opts = append([]Option{WithProvisioner(resource.NewProvisioner(filepath.Join(dir, "work")))}, opts...)
	r.p = New(r.eng, r.ren, opts...)
	return r
}

// file creates an empty media file and returns its absolute path.
func (r *rig) file(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(r.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return path
}

func (r *rig) initialized(t *testing.T) *rig {
	t.Helper()
	require.NoError(t, r.p.Initialize(context.Background()))
	return r
}

func (r *rig) playing(t *testing.T) *rig {
	t.Helper()
	ctx := context.Background()
	r.initialized(t)
	require.NoError(t, r.p.Open(ctx, renderer.Path(r.file(t, "clip.mp4")), r.file(t, "clip.wav")))
	require.NoError(t, r.p.Start())
	require.Equal(t, Playing, r.p.State())
	r.log.Reset()
	return r
}

func TestPlayer_InitializeProvisionsPatch(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	require.NoError(t, r.p.Initialize(context.Background()))
	require.Equal(t, Initialized, r.p.State())

	_, err := os.Stat(filepath.Join(r.dir, "work", resource.PatchName))
	require.NoError(t, err)
	require.Equal(t, []string{"engine.Initialize rate=48000 out=2 ticks=1"}, r.log.Calls())

	// Initialize on a running player is a no-op.
	require.NoError(t, r.p.Initialize(context.Background()))
	require.Len(t, r.log.Calls(), 1)
}

func TestPlayer_InitializeWith(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	params := engine.DefaultParams()
	params.SampleRate = 44100
	params.OutputChannels = 8
	params.TicksPerBuffer = 4

	require.NoError(t, r.p.InitializeWith(context.Background(), params))
	require.Equal(t, params, r.eng.Params())
}

func TestPlayer_InitializeEngineFailure(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	r.eng.Fail = playertest.FailOnce("Initialize", playertest.ErrInjected)

	err := r.p.Initialize(context.Background())
	var eerr *EngineError
	require.ErrorAs(t, err, &eerr)
	require.ErrorIs(t, err, playertest.ErrInjected)
	require.Equal(t, Uninitialized, r.p.State())

	require.NoError(t, r.p.Initialize(context.Background()))
	require.Equal(t, Initialized, r.p.State())
}

func TestPlayer_StartBeforeOpen(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	require.ErrorIs(t, r.p.Start(), ErrNotInitialized)

	r.initialized(t)
	err := r.p.Start()
	require.ErrorIs(t, err, ErrNoSource)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.Equal(t, Initialized, r.p.State())
}

func TestPlayer_UninitializedRejects(t *testing.T) {
	t.Parallel()

	r := newRig(t)
	ctx := context.Background()

	require.ErrorIs(t, r.p.OpenAudio(ctx, "a.wav"), ErrNotInitialized)
	require.ErrorIs(t, r.p.OpenVideo(ctx, renderer.Path("a.mp4")), ErrNotInitialized)
	require.ErrorIs(t, r.p.Stop(), ErrNotInitialized)
	require.ErrorIs(t, r.p.Reset(), ErrNotInitialized)
	require.ErrorIs(t, r.p.SetLookDirection(orientation.LookVector{X: 1}), ErrNotInitialized)
	require.Empty(t, r.log.Calls())

	require.NoError(t, r.p.Release())
	require.Equal(t, Released, r.p.State())
}

func TestPlayer_AfterRelease(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	ctx := context.Background()

	require.NoError(t, r.p.Release())
	require.Equal(t, []string{"engine.Release", "renderer.Release"}, r.log.Calls())
	require.False(t, r.p.IsPlaying())
	r.log.Reset()

	ops := map[string]func() error{
		"initialize": func() error { return r.p.Initialize(ctx) },
		"open audio": func() error { return r.p.OpenAudio(ctx, r.file(t, "b.wav")) },
		"open video": func() error { return r.p.OpenVideo(ctx, renderer.URI("https://example.com/b.mp4")) },
		"open":       func() error { return r.p.Open(ctx, renderer.Path("b.mp4"), "b.wav") },
		"start":      r.p.Start,
		"stop":       r.p.Stop,
		"reset":      r.p.Reset,
		"look":       func() error { return r.p.SetLookDirection(orientation.LookVector{X: 1}) },
	}
	for name, op := range ops {
		require.ErrorIs(t, op(), ErrAlreadyReleased, name)
	}

	require.NoError(t, r.p.Release())
	require.Empty(t, r.log.Calls())
}

func TestPlayer_OpenAudioOrder(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.log.Reset()
	track := r.file(t, "track.wav")

	require.NoError(t, r.p.OpenAudio(context.Background(), track))
	require.Equal(t, AudioOpen, r.p.State())
	require.False(t, r.p.Handle().IsZero())
	require.Equal(t, []string{
		"engine.OpenPatch quad_binaural.pd",
		"engine.StartAudio",
		"engine.SendMessage message open " + track,
	}, r.log.Calls())
}

func TestPlayer_OpenAudioRollback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		want   []string
	}{
		{
			name:   "patch",
			method: "OpenPatch",
			want:   []string{"engine.OpenPatch quad_binaural.pd", "engine.StopAudio"},
		},
		{
			name:   "dsp",
			method: "StartAudio",
			want: []string{
				"engine.OpenPatch quad_binaural.pd",
				"engine.StartAudio",
				"engine.ClosePatch quad_binaural.pd",
				"engine.StopAudio",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRig(t).initialized(t)
			r.eng.Fail = playertest.FailOnce(tt.method, playertest.ErrInjected)
			r.log.Reset()

			err := r.p.OpenAudio(context.Background(), r.file(t, "first.wav"))
			var eerr *EngineError
			require.ErrorAs(t, err, &eerr)
			require.ErrorIs(t, err, playertest.ErrInjected)
			require.Equal(t, Initialized, r.p.State())
			require.True(t, r.p.Handle().IsZero())
			require.Equal(t, tt.want, r.log.Calls())
			require.Zero(t, r.eng.OpenHandles())
			require.False(t, r.eng.Running())

			require.NoError(t, r.p.OpenAudio(context.Background(), r.file(t, "second.wav")))
			require.Equal(t, AudioOpen, r.p.State())
			require.Equal(t, 1, r.eng.OpenHandles())
		})
	}
}

func TestPlayer_OpenAudioMissingFile(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.log.Reset()

	err := r.p.OpenAudio(context.Background(), filepath.Join(r.dir, "missing.wav"))
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.Equal(t, Initialized, r.p.State())
	require.Equal(t, []string{"engine.StopAudio"}, r.log.Calls())
}

func TestPlayer_ReopenAudio(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	ctx := context.Background()

	require.NoError(t, r.p.OpenAudio(ctx, r.file(t, "a.wav")))
	first := r.p.Handle()
	r.log.Reset()

	b := r.file(t, "b.wav")
	require.NoError(t, r.p.OpenAudio(ctx, b))
	require.Equal(t, AudioOpen, r.p.State())
	require.NotEqual(t, first.ID(), r.p.Handle().ID())
	require.Equal(t, 1, r.eng.OpenHandles())
	require.Equal(t, []string{
		"engine.ClosePatch quad_binaural.pd",
		"engine.StopAudio",
		"engine.OpenPatch quad_binaural.pd",
		"engine.StartAudio",
		"engine.SendMessage message open " + b,
	}, r.log.Calls())
}

func TestPlayer_OpenAudioWhilePlaying(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	require.ErrorIs(t, r.p.OpenAudio(context.Background(), r.file(t, "other.wav")), ErrBusy)
	require.Equal(t, Playing, r.p.State())
	require.Empty(t, r.log.Calls())
}

func TestPlayer_OpenVideoOnly(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.log.Reset()

	require.NoError(t, r.p.OpenVideo(context.Background(), renderer.URI("https://example.com/clip.mp4")))
	require.Equal(t, AudioOpen, r.p.State())
	require.Equal(t, []string{
		"renderer.SetSource https://example.com/clip.mp4",
		"renderer.Prepare",
	}, r.log.Calls())

	// Video alone is not enough to play.
	require.ErrorIs(t, r.p.Start(), ErrNoSource)
}

func TestPlayer_OpenVideoFailure(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.ren.Fail = playertest.FailOnce("Prepare", playertest.ErrInjected)
	r.log.Reset()

	err := r.p.OpenVideo(context.Background(), renderer.Path("clip.mp4"))
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, "prepare video", serr.Op)
	require.Equal(t, Initialized, r.p.State())
	require.Equal(t, []string{
		"renderer.SetSource clip.mp4",
		"renderer.Prepare",
		"renderer.Reset",
	}, r.log.Calls())
}

func TestPlayer_OpenVideoWhilePlaying(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)

	require.NoError(t, r.p.OpenVideo(context.Background(), renderer.Path("next.mp4")))
	require.Equal(t, Playing, r.p.State())
	require.True(t, r.p.IsPlaying())
	require.Equal(t, []string{
		"renderer.Reset",
		"renderer.SetSource next.mp4",
		"renderer.Prepare",
		"renderer.Start",
	}, r.log.Calls())
}

func TestPlayer_OpenResetsOnVideoFailure(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.ren.Fail = playertest.FailOnce("SetSource", playertest.ErrInjected)
	track := r.file(t, "clip.wav")
	r.log.Reset()

	err := r.p.Open(context.Background(), renderer.Path("clip.mp4"), track)
	require.ErrorIs(t, err, playertest.ErrInjected)
	require.Equal(t, Initialized, r.p.State())
	require.True(t, r.p.Handle().IsZero())
	require.Zero(t, r.eng.OpenHandles())
	require.Equal(t, []string{
		"engine.OpenPatch quad_binaural.pd",
		"engine.StartAudio",
		"engine.SendMessage message open " + track,
		"renderer.SetSource clip.mp4",
		"renderer.Reset",
		"engine.ClosePatch quad_binaural.pd",
		"engine.StopAudio",
	}, r.log.Calls())

	// The player is reusable after the rollback.
	require.NoError(t, r.p.Open(context.Background(), renderer.Path("clip.mp4"), track))
	require.Equal(t, AudioOpen, r.p.State())
}

func TestPlayer_OpenResetsOnAudioFailure(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.eng.Fail = playertest.FailOnce("SendMessage", playertest.ErrInjected)
	r.log.Reset()

	err := r.p.Open(context.Background(), renderer.Path("clip.mp4"), r.file(t, "clip.wav"))
	var eerr *EngineError
	require.ErrorAs(t, err, &eerr)
	require.Equal(t, "load track", eerr.Op)
	require.Equal(t, Initialized, r.p.State())
	for _, c := range r.log.Calls() {
		require.False(t, strings.HasPrefix(c, "renderer."), "video must not be touched: %s", c)
	}
}

func TestPlayer_StartStopStart(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	require.NoError(t, r.p.Stop())
	require.Equal(t, Stopped, r.p.State())
	require.False(t, r.p.IsPlaying())
	require.NoError(t, r.p.Start())
	require.True(t, r.p.IsPlaying())
	require.NoError(t, r.p.Stop())
	require.NoError(t, r.p.Start())

	require.Equal(t, []string{
		"renderer.Pause",
		"renderer.SeekTo 0s",
		"engine.SendFloat control 0",
		"renderer.Start",
		"engine.SendFloat control 1",
		"renderer.Pause",
		"renderer.SeekTo 0s",
		"engine.SendFloat control 0",
		"renderer.Start",
		"engine.SendFloat control 1",
	}, r.log.Calls())
}

func TestPlayer_StartFromAudioOpen(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	require.NoError(t, r.p.Open(context.Background(), renderer.Path("clip.mp4"), r.file(t, "clip.wav")))
	r.log.Reset()

	require.NoError(t, r.p.Start())
	require.NoError(t, r.p.Start())
	require.Equal(t, []string{"renderer.Start", "engine.SendFloat control 1"}, r.log.Calls())
}

func TestPlayer_StartEngineFailurePausesVideo(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	require.NoError(t, r.p.Open(context.Background(), renderer.Path("clip.mp4"), r.file(t, "clip.wav")))
	r.eng.Fail = playertest.FailOnce("SendFloat", playertest.ErrInjected)
	r.log.Reset()

	var eerr *EngineError
	require.ErrorAs(t, r.p.Start(), &eerr)
	require.Equal(t, AudioOpen, r.p.State())
	require.False(t, r.ren.IsPlaying())
	require.Equal(t, []string{"renderer.Start", "engine.SendFloat control 1", "renderer.Pause"}, r.log.Calls())
}

func TestPlayer_StopWithoutPlayback(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.log.Reset()
	require.NoError(t, r.p.Stop())
	require.Equal(t, Initialized, r.p.State())

	require.NoError(t, r.p.OpenAudio(context.Background(), r.file(t, "a.wav")))
	r.log.Reset()
	require.NoError(t, r.p.Stop())
	require.Equal(t, Stopped, r.p.State())
	require.NoError(t, r.p.Stop())
	require.Equal(t, []string{"engine.SendFloat control 0"}, r.log.Calls())
}

func TestPlayer_ResetWhilePlaying(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	first := r.p.Handle()

	require.NoError(t, r.p.Reset())
	require.Equal(t, Initialized, r.p.State())
	require.True(t, r.p.Handle().IsZero())
	require.Zero(t, r.eng.OpenHandles())
	require.Nil(t, r.ren.Source())
	require.Equal(t, []string{
		"engine.ClosePatch quad_binaural.pd",
		"engine.StopAudio",
		"renderer.Reset",
	}, r.log.Calls())

	require.NoError(t, r.p.OpenAudio(context.Background(), r.file(t, "again.wav")))
	require.Equal(t, AudioOpen, r.p.State())
	require.NotEqual(t, first.ID(), r.p.Handle().ID())

	// A second reset in Initialized is silent.
	require.NoError(t, r.p.Reset())
	r.log.Reset()
	require.NoError(t, r.p.Reset())
	require.Empty(t, r.log.Calls())
}

func TestPlayer_ResetCollectsErrors(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	r.eng.Fail = playertest.FailOnce("ClosePatch", playertest.ErrInjected)
	r.ren.Fail = playertest.FailOnce("Reset", errors.New("renderer gone"))

	err := r.p.Reset()
	require.ErrorIs(t, err, playertest.ErrInjected)
	require.ErrorContains(t, err, "renderer gone")
	require.Equal(t, Initialized, r.p.State())
}

func TestPlayer_SetLookDirection(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	r.log.Reset()

	_, ok := r.p.Control()
	require.False(t, ok)

	require.NoError(t, r.p.SetLookDirection(orientation.LookVector{X: 3, Y: 7, Z: 4}))
	require.Equal(t, []string{"engine.SendFloat x 0.6", "engine.SendFloat z 0.8"}, r.log.Calls())

	ctrl, ok := r.p.Control()
	require.True(t, ok)
	require.InDelta(t, 0.6, ctrl.X, 1e-6)
	require.InDelta(t, 0.8, ctrl.Z, 1e-6)

	// Straight up has no heading; the previous control stays.
	r.log.Reset()
	require.NoError(t, r.p.SetLookDirection(orientation.LookVector{Y: 1}))
	require.Empty(t, r.log.Calls())
	again, _ := r.p.Control()
	require.Equal(t, ctrl, again)
}

func TestPlayer_SetLookDirectionPartialFailure(t *testing.T) {
	t.Parallel()

	r := newRig(t).initialized(t)
	require.NoError(t, r.p.SetLookDirection(orientation.LookVector{X: 3, Z: 4}))
	before, _ := r.p.Control()
	r.log.Reset()

	// The second SendFloat of the next heading (z) fails.
	sends := 0
	r.eng.Fail = func(method string) error {
		if method != "SendFloat" {
			return nil
		}
		sends++
		if sends == 2 {
			return playertest.ErrInjected
		}
		return nil
	}

	err := r.p.SetLookDirection(orientation.LookVector{X: 1})
	var eerr *EngineError
	require.ErrorAs(t, err, &eerr)
	require.ErrorIs(t, err, playertest.ErrInjected)
	require.Equal(t, []string{
		"engine.SendFloat x 1",
		"engine.SendFloat z 0",
		"engine.SendFloat x 0.6",
	}, r.log.Calls())

	after, ok := r.p.Control()
	require.True(t, ok)
	require.Equal(t, before, after)
}

func TestPlayer_ReopenRestoresLookDirection(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	require.NoError(t, r.p.SetLookDirection(orientation.LookVector{X: 1}))
	require.NoError(t, r.p.Reset())
	r.log.Reset()

	track := r.file(t, "next.wav")
	require.NoError(t, r.p.OpenAudio(context.Background(), track))
	require.NoError(t, r.p.Start())
	require.Equal(t, []string{
		"engine.OpenPatch quad_binaural.pd",
		"engine.StartAudio",
		"engine.SendMessage message open " + track,
		"engine.SendFloat x 1",
		"engine.SendFloat z 0",
		"engine.SendFloat control 1",
	}, r.log.Calls())
}

func TestPlayer_Release(t *testing.T) {
	t.Parallel()

	r := newRig(t).playing(t)
	r.ren.Fail = playertest.FailOnce("Release", playertest.ErrInjected)

	err := r.p.Release()
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, Released, r.p.State())
	require.True(t, r.p.Handle().IsZero())
	require.NoError(t, r.p.Release())
}

func TestPlayer_StagedTrack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "quad.wav")
	_, err := wav.WriteFile(src, audiotest.Sine(44100, staging.QuadChannels, 4410, 440))
	require.NoError(t, err)

	r := newRig(t, WithStager(staging.New(filepath.Join(dir, "staged"), nil)))
	r.initialized(t)
	r.log.Reset()

	require.NoError(t, r.p.OpenAudio(context.Background(), src))
	calls := r.log.Calls()
	require.Len(t, calls, 3)
	staged := strings.TrimPrefix(calls[2], "engine.SendMessage message open ")
	require.Equal(t, filepath.Join(dir, "staged", "quad.48000.wav"), staged)
	_, err = os.Stat(staged)
	require.NoError(t, err)

	require.NoError(t, r.p.Reset())
	_, err = os.Stat(staged)
	require.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(src)
	require.NoError(t, err)
}

func TestPlayer_StagingRejectsLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stereo := filepath.Join(dir, "stereo.wav")
	_, err := wav.WriteFile(stereo, audiotest.Silence(48000, 2, 480))
	require.NoError(t, err)

	r := newRig(t, WithStager(staging.New(dir, nil)))
	r.initialized(t)
	r.log.Reset()

	err = r.p.OpenAudio(context.Background(), stereo)
	var serr *SourceError
	require.ErrorAs(t, err, &serr)
	require.ErrorIs(t, err, staging.ErrChannelCount)
	require.Equal(t, Initialized, r.p.State())
	require.Equal(t, []string{"engine.StopAudio"}, r.log.Calls())
}

func TestState_String(t *testing.T) {
	t.Parallel()

	tests := map[State]string{
		Uninitialized: "uninitialized",
		AudioOpen:     "audio-open",
		Released:      "released",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
