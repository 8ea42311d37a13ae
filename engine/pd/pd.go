// SPDX-License-Identifier: EPL-2.0

package pd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/internal/proc"
	"github.com/ik5/quadbinaural/logger"
)

const (
	writeWait  = 2 * time.Second
	quitGrace  = 3 * time.Second
	dialPeriod = 50 * time.Millisecond
)

// Config describes how to reach Pure Data.
type Config struct {
	// Binary is the pd executable, "pd" when empty.
	Binary string
	// Address is the host:port the bootstrap [netreceive] listens on.
	Address string
	// External connects to a running Pd instead of spawning one.
	External bool
	// WorkDir receives the bootstrap patch. os.TempDir when empty.
	WorkDir string
	// Flags are extra command line flags for pd.
	Flags []string
	// DialTimeout bounds how long Initialize waits for the FUDI port.
	DialTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "pd"
	}
	if c.Address == "" {
		c.Address = "127.0.0.1:3000"
	}
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	return c
}

// Engine is a Pure Data backed engine.Engine. All methods are safe for
// concurrent use, although the player drives it from a single goroutine.
type Engine struct {
	cfg Config
	log *logger.Logger

	mu       sync.Mutex
	conn     net.Conn
	proc     *proc.Process
	params   engine.Params
	dsp      bool
	released bool
	patches  map[uuid.UUID]engine.Handle
}

var _ engine.Engine = (*Engine)(nil)

// New returns an engine that does nothing until Initialize.
func New(cfg Config, log *logger.Logger) *Engine {
	return &Engine{
		cfg:     cfg.withDefaults(),
		log:     logger.OrNop(log).Component("pd"),
		patches: make(map[uuid.UUID]engine.Handle),
	}
}

// Initialize starts (or restarts) Pd with p and connects to it.
func (e *Engine) Initialize(ctx context.Context, p engine.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return engine.ErrReleased
	}
	if e.conn != nil {
		if !p.Restart {
			return nil
		}
		e.log.Debug().Msg("restarting engine")
		if err := e.teardownLocked(); err != nil {
			e.log.Warn().Err(err).Msg("teardown before restart")
		}
	}

	if !e.cfg.External {
		if err := e.spawnLocked(p); err != nil {
			return err
		}
	} else {
		e.log.Info().Str("addr", e.cfg.Address).Msg("using external pd, audio params are owned by that instance")
	}

	conn, err := e.dialLocked(ctx)
	if err != nil {
		if e.proc != nil {
			_ = e.proc.Stop(0)
			e.proc = nil
		}
		return err
	}

	e.conn = conn
	e.params = p
	e.log.Info().
		Str("addr", e.cfg.Address).
		Int("rate", p.SampleRate).
		Int("out", p.OutputChannels).
		Int("block", p.BlockSize()).
		Msg("engine ready")
	return nil
}

func (e *Engine) spawnLocked(p engine.Params) error {
	_, portStr, err := net.SplitHostPort(e.cfg.Address)
	if err != nil {
		return fmt.Errorf("pd address %q: %w", e.cfg.Address, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("pd port %q: %w", portStr, err)
	}

	bootstrap, err := writeBootstrap(e.cfg.WorkDir, port)
	if err != nil {
		return err
	}

	child, err := proc.Start("pd", e.cfg.Binary, processArgs(p, e.cfg.Flags, bootstrap), e.log)
	if err != nil {
		return err
	}
	e.proc = child
	return nil
}

// dialLocked retries until the port accepts, the process dies, or the
// timeout expires.
func (e *Engine) dialLocked(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.DialTimeout)
	defer cancel()

	var exited <-chan struct{}
	if e.proc != nil {
		exited = e.proc.Exited()
	}

	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", e.cfg.Address)
		if err == nil {
			return conn, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect pd at %s: %w", e.cfg.Address, errors.Join(ctx.Err(), err))
		case <-exited:
			return nil, fmt.Errorf("pd exited before accepting connections: %w", e.proc.Err())
		case <-time.After(dialPeriod):
		}
	}
}

// OpenPatch asks Pd to open the patch file at path.
func (e *Engine) OpenPatch(_ context.Context, path string) (engine.Handle, error) {
	if _, err := os.Stat(path); err != nil {
		return engine.Handle{}, fmt.Errorf("open patch: %w", err)
	}

	h := engine.NewHandle(path)
	if err := e.send("pd", "open", h.Name(), h.Dir()); err != nil {
		return engine.Handle{}, fmt.Errorf("open patch %s: %w", h.Name(), err)
	}

	e.mu.Lock()
	e.patches[h.ID()] = h
	e.mu.Unlock()

	e.log.Debug().Stringer("handle", h).Msg("patch opened")
	return h, nil
}

// ClosePatch closes a patch opened by OpenPatch.
func (e *Engine) ClosePatch(h engine.Handle) error {
	e.mu.Lock()
	_, ok := e.patches[h.ID()]
	delete(e.patches, h.ID())
	e.mu.Unlock()

	if h.IsZero() || !ok {
		return nil
	}
	if err := e.send("pd-"+h.Name(), "menuclose"); err != nil {
		return fmt.Errorf("close patch %s: %w", h.Name(), err)
	}

	e.log.Debug().Stringer("handle", h).Msg("patch closed")
	return nil
}

// StartAudio switches DSP on.
func (e *Engine) StartAudio(_ context.Context) error {
	if err := e.send("pd", "dsp", 1); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	e.mu.Lock()
	e.dsp = true
	e.mu.Unlock()
	return nil
}

// StopAudio switches DSP off. It is a no-op when DSP is not running.
func (e *Engine) StopAudio() error {
	e.mu.Lock()
	running := e.dsp && e.conn != nil
	e.mu.Unlock()
	if !running {
		return nil
	}

	if err := e.send("pd", "dsp", 0); err != nil {
		return fmt.Errorf("stop audio: %w", err)
	}
	e.mu.Lock()
	e.dsp = false
	e.mu.Unlock()
	return nil
}

// SendFloat sends v to receiver.
func (e *Engine) SendFloat(receiver string, v float32) error {
	return e.send(receiver, v)
}

// SendMessage sends "selector args..." to receiver.
func (e *Engine) SendMessage(receiver, selector string, args ...any) error {
	return e.send(receiver, append([]any{selector}, args...)...)
}

// Release closes every patch, stops Pd if it was spawned here and drops the
// connection. Later calls return nil.
func (e *Engine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return nil
	}
	e.released = true

	err := e.teardownLocked()
	e.log.Info().Msg("engine released")
	return err
}

// teardownLocked closes patches, quits a spawned Pd and closes the connection.
func (e *Engine) teardownLocked() error {
	var errs []error

	if e.conn != nil {
		for id, h := range e.patches {
			if err := e.writeLocked("pd-"+h.Name(), "menuclose"); err != nil {
				errs = append(errs, fmt.Errorf("close patch %s: %w", h.Name(), err))
			}
			delete(e.patches, id)
		}
		if e.dsp {
			if err := e.writeLocked("pd", "dsp", 0); err != nil {
				errs = append(errs, fmt.Errorf("stop audio: %w", err))
			}
		}
		if e.proc != nil {
			if err := e.writeLocked("pd", "quit"); err != nil {
				errs = append(errs, fmt.Errorf("quit pd: %w", err))
			}
		}
		if err := e.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		e.conn = nil
	}
	e.dsp = false

	if e.proc != nil {
		if err := e.proc.Stop(quitGrace); err != nil {
			errs = append(errs, err)
		}
		e.proc = nil
	}

	return errors.Join(errs...)
}

func (e *Engine) send(receiver string, args ...any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return engine.ErrReleased
	}
	return e.writeLocked(receiver, args...)
}

func (e *Engine) writeLocked(receiver string, args ...any) error {
	if e.conn == nil {
		return engine.ErrNotInitialized
	}

	msg, err := encode(receiver, args...)
	if err != nil {
		return err
	}
	if err := e.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("%w", err)
	}
	if _, err := e.conn.Write(msg); err != nil {
		return fmt.Errorf("write %s: %w", receiver, err)
	}
	return nil
}
