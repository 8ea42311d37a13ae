// SPDX-License-Identifier: EPL-2.0

// Package playertest provides an engine and a renderer that record every call
// into one shared, ordered log.
package playertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/quadbinaural/engine"
	"github.com/ik5/quadbinaural/renderer"
)

// ErrInjected is a convenient error for Fail hooks.
var ErrInjected = errors.New("playertest: injected failure")

// Log is an ordered record of calls, safe for concurrent use.
type Log struct {
	mu    sync.Mutex
	calls []string
}

func (l *Log) add(format string, args ...any) {
	l.mu.Lock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (l *Log) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Reset forgets every recorded call.
func (l *Log) Reset() {
	l.mu.Lock()
	l.calls = nil
	l.mu.Unlock()
}

// FailFunc decides whether a call fails. method is the bare method name,
// e.g. "OpenPatch".
type FailFunc func(method string) error

// FailOnce fails the first call to method with err.
func FailOnce(method string, err error) FailFunc {
	var once sync.Once
	return func(m string) error {
		var out error
		if m == method {
			once.Do(func() { out = err })
		}
		return out
	}
}

// Engine is a recording engine.Engine. Calls are logged as
// "engine.<Method> <args>" even when Fail makes them fail.
type Engine struct {
	Log  *Log
	Fail FailFunc

	mu      sync.Mutex
	params  engine.Params
	open    map[uuid.UUID]engine.Handle
	running bool
}

var _ engine.Engine = (*Engine)(nil)

func NewEngine(log *Log) *Engine {
	return &Engine{Log: log, open: make(map[uuid.UUID]engine.Handle)}
}

func (e *Engine) fail(method string) error {
	if e.Fail == nil {
		return nil
	}
	return e.Fail(method)
}

func (e *Engine) Initialize(_ context.Context, p engine.Params) error {
	e.Log.add("engine.Initialize rate=%d out=%d ticks=%d", p.SampleRate, p.OutputChannels, p.TicksPerBuffer)
	if err := e.fail("Initialize"); err != nil {
		return err
	}
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	return nil
}

func (e *Engine) OpenPatch(_ context.Context, path string) (engine.Handle, error) {
	h := engine.NewHandle(path)
	e.Log.add("engine.OpenPatch %s", h.Name())
	if err := e.fail("OpenPatch"); err != nil {
		return engine.Handle{}, err
	}
	e.mu.Lock()
	e.open[h.ID()] = h
	e.mu.Unlock()
	return h, nil
}

func (e *Engine) ClosePatch(h engine.Handle) error {
	e.Log.add("engine.ClosePatch %s", h.Name())
	if err := e.fail("ClosePatch"); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.open, h.ID())
	e.mu.Unlock()
	return nil
}

func (e *Engine) StartAudio(context.Context) error {
	e.Log.add("engine.StartAudio")
	if err := e.fail("StartAudio"); err != nil {
		return err
	}
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()
	return nil
}

func (e *Engine) StopAudio() error {
	e.Log.add("engine.StopAudio")
	if err := e.fail("StopAudio"); err != nil {
		return err
	}
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
	return nil
}

func (e *Engine) SendFloat(receiver string, v float32) error {
	e.Log.add("engine.SendFloat %s %g", receiver, v)
	return e.fail("SendFloat")
}

func (e *Engine) SendMessage(receiver, selector string, args ...any) error {
	parts := []string{receiver, selector}
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	e.Log.add("engine.SendMessage %s", strings.Join(parts, " "))
	return e.fail("SendMessage")
}

func (e *Engine) Release() error {
	e.Log.add("engine.Release")
	e.mu.Lock()
	clear(e.open)
	e.running = false
	e.mu.Unlock()
	return e.fail("Release")
}

// OpenHandles returns how many patches are loaded.
func (e *Engine) OpenHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.open)
}

// Running reports whether DSP is on.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Params returns the parameters of the last successful Initialize.
func (e *Engine) Params() engine.Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Renderer is a recording renderer.Renderer. IsPlaying is not logged.
type Renderer struct {
	Log  *Log
	Fail FailFunc

	mu      sync.Mutex
	source  renderer.Source
	playing bool
}

var _ renderer.Renderer = (*Renderer)(nil)

func NewRenderer(log *Log) *Renderer {
	return &Renderer{Log: log}
}

func (r *Renderer) fail(method string) error {
	if r.Fail == nil {
		return nil
	}
	return r.Fail(method)
}

func (r *Renderer) SetSource(_ context.Context, src renderer.Source) error {
	r.Log.add("renderer.SetSource %s", src)
	if err := r.fail("SetSource"); err != nil {
		return err
	}
	r.mu.Lock()
	r.source = src
	r.mu.Unlock()
	return nil
}

func (r *Renderer) Prepare(context.Context) error {
	r.Log.add("renderer.Prepare")
	return r.fail("Prepare")
}

func (r *Renderer) Start() error {
	r.Log.add("renderer.Start")
	if err := r.fail("Start"); err != nil {
		return err
	}
	r.setPlaying(true)
	return nil
}

func (r *Renderer) Pause() error {
	r.Log.add("renderer.Pause")
	if err := r.fail("Pause"); err != nil {
		return err
	}
	r.setPlaying(false)
	return nil
}

func (r *Renderer) SeekTo(pos time.Duration) error {
	r.Log.add("renderer.SeekTo %s", pos)
	return r.fail("SeekTo")
}

func (r *Renderer) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}

func (r *Renderer) Reset() error {
	r.Log.add("renderer.Reset")
	r.mu.Lock()
	r.source = nil
	r.playing = false
	r.mu.Unlock()
	return r.fail("Reset")
}

func (r *Renderer) Release() error {
	r.Log.add("renderer.Release")
	r.setPlaying(false)
	return r.fail("Release")
}

// Source returns the source set last, nil after Reset.
func (r *Renderer) Source() renderer.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

func (r *Renderer) setPlaying(v bool) {
	r.mu.Lock()
	r.playing = v
	r.mu.Unlock()
}
