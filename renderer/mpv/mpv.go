// SPDX-License-Identifier: EPL-2.0

package mpv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ik5/quadbinaural/internal/proc"
	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/renderer"
)

var (
	ErrNoSource    = errors.New("mpv: no source set")
	ErrNotPrepared = errors.New("mpv: source not prepared")
	ErrReleased    = errors.New("mpv: released")
	ErrLoad        = errors.New("mpv: load failed")
	ErrExited      = errors.New("mpv: process exited")
)

const (
	dialPeriod = 50 * time.Millisecond
	quitGrace  = 3 * time.Second
)

// Config describes how to run mpv.
type Config struct {
	// Binary is the mpv executable, "mpv" when empty.
	Binary string
	// Socket is the IPC socket path.
	Socket string
	// External connects to an mpv already serving Socket.
	External bool
	// Args are extra mpv command line arguments, e.g. "--fs".
	Args []string
	// Timeout bounds every command and Prepare when the caller's context has no deadline.
	Timeout time.Duration
	// Extractor resolves renderer.Resource sources.
	Extractor renderer.Extractor
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "mpv"
	}
	if c.Socket == "" {
		c.Socket = filepath.Join(os.TempDir(), fmt.Sprintf("quadplay-mpv-%d.sock", os.Getpid()))
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}

// Renderer is an mpv backed renderer.Renderer.
type Renderer struct {
	cfg Config
	log *logger.Logger

	mu       sync.Mutex
	ipc      *ipcConn
	proc     *proc.Process
	location string
	loaded   bool
	released bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New returns a renderer; mpv is not started until the first Prepare.
func New(cfg Config, log *logger.Logger) *Renderer {
	return &Renderer{
		cfg: cfg.withDefaults(),
		log: logger.OrNop(log).Component("mpv"),
	}
}

// SetSource resolves src to a location for the next Prepare.
func (r *Renderer) SetSource(_ context.Context, src renderer.Source) error {
	loc, err := renderer.Locate(src, r.cfg.Extractor)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	r.location = loc
	r.loaded = false

	r.log.Debug().Str("location", loc).Msg("source set")
	return nil
}

// Prepare loads the source paused and waits until mpv reports it loaded.
func (r *Renderer) Prepare(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if r.location == "" {
		return ErrNoSource
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	if err := r.connectLocked(ctx); err != nil {
		return err
	}

	r.ipc.drainEvents()
	if _, err := r.ipc.call(ctx, "set_property", "pause", true); err != nil {
		return err
	}
	if _, err := r.ipc.call(ctx, "loadfile", r.location, "replace"); err != nil {
		return err
	}

	for {
		select {
		case ev := <-r.ipc.events:
			switch {
			case ev.Name == "file-loaded":
				r.loaded = true
				r.log.Debug().Str("location", r.location).Msg("source prepared")
				return nil
			case ev.Name == "end-file" && ev.Reason == "error":
				return fmt.Errorf("%w: %s: %v", ErrLoad, r.location, ev.ExtraData["file_error"])
			}
		case <-r.ipc.closed:
			return ErrClosed
		case <-ctx.Done():
			return fmt.Errorf("prepare %s: %w", r.location, ctx.Err())
		}
	}
}

// Start resumes playback.
func (r *Renderer) Start() error {
	return r.loadedCommand("set_property", "pause", false)
}

// Pause pauses playback.
func (r *Renderer) Pause() error {
	return r.loadedCommand("set_property", "pause", true)
}

// SeekTo jumps to an absolute position.
func (r *Renderer) SeekTo(pos time.Duration) error {
	return r.loadedCommand("seek", pos.Seconds(), "absolute")
}

// IsPlaying reports whether a loaded source is unpaused.
func (r *Renderer) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded || r.ipc == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	data, err := r.ipc.call(ctx, "get_property", "pause")
	if err != nil {
		r.log.Debug().Err(err).Msg("query pause")
		return false
	}
	paused, ok := data.(bool)
	return ok && !paused
}

// Reset unloads the current source.
func (r *Renderer) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	r.location = ""
	r.loaded = false
	if r.ipc == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()
	_, err := r.ipc.call(ctx, "stop")
	return err
}

// Release quits a spawned mpv and closes the IPC connection.
func (r *Renderer) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return nil
	}
	r.released = true
	r.loaded = false

	var errs []error
	if r.ipc != nil {
		if r.proc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
			if _, err := r.ipc.call(ctx, "quit"); err != nil && !errors.Is(err, ErrClosed) {
				errs = append(errs, err)
			}
			cancel()
		}
		if err := r.ipc.close(); err != nil {
			r.log.Debug().Err(err).Msg("close ipc")
		}
		r.ipc = nil
	}
	if r.proc != nil {
		if err := r.proc.Stop(quitGrace); err != nil {
			errs = append(errs, err)
		}
		r.proc = nil
		_ = os.Remove(r.cfg.Socket)
	}

	r.log.Info().Msg("renderer released")
	return errors.Join(errs...)
}

func (r *Renderer) loadedCommand(args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return ErrReleased
	}
	if !r.loaded || r.ipc == nil {
		return ErrNotPrepared
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()
	_, err := r.ipc.call(ctx, args...)
	return err
}

// connectLocked spawns mpv when needed and dials its socket.
func (r *Renderer) connectLocked(ctx context.Context) error {
	if r.ipc != nil {
		select {
		case <-r.ipc.closed:
			_ = r.ipc.close()
			r.ipc = nil
		default:
			return nil
		}
	}

	if !r.cfg.External && r.proc == nil {
		if err := r.spawnLocked(); err != nil {
			return err
		}
	}

	var exited <-chan struct{}
	if r.proc != nil {
		exited = r.proc.Exited()
	}

	for {
		ipc, err := dialIPC(r.cfg.Socket)
		if err == nil {
			r.ipc = ipc
			return nil
		}
		if r.cfg.External {
			return fmt.Errorf("connect mpv at %s: %w", r.cfg.Socket, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("connect mpv at %s: %w", r.cfg.Socket, errors.Join(ctx.Err(), err))
		case <-exited:
			err := errors.Join(ErrExited, r.proc.Err())
			r.proc = nil
			return fmt.Errorf("open %s: %w", r.cfg.Socket, err)
		case <-time.After(dialPeriod):
		}
	}
}

func processArgs(cfg Config) []string {
	args := []string{
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--no-terminal",
		"--input-ipc-server=" + cfg.Socket,
	}
	return append(args, cfg.Args...)
}

func (r *Renderer) spawnLocked() error {
	_ = os.Remove(r.cfg.Socket)

	child, err := proc.Start("mpv", r.cfg.Binary, processArgs(r.cfg), r.log)
	if err != nil {
		return err
	}
	r.proc = child
	return nil
}
