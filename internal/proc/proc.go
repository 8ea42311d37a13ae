// SPDX-License-Identifier: EPL-2.0

// Package proc supervises the helper processes the player spawns.
package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ik5/quadbinaural/logger"
)

// Process is a started child whose output is forwarded to the log.
type Process struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Start runs binary detached from any request context; the process lives
// until Stop is called or it exits on its own.
func Start(name, binary string, args []string, log *logger.Logger) (*Process, error) {
	cmd := exec.Command(binary, args...)
	out := logger.OrNop(log).Writer(name)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}
	logger.OrNop(log).Debug().Int("pid", cmd.Process.Pid).Strs("args", args).Msgf("%s started", name)

	p := &Process{name: name, cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Pid of the running child.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Exited is closed once the process is gone.
func (p *Process) Exited() <-chan struct{} { return p.done }

// Err is the exit error; only meaningful after Exited is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Stop waits up to grace for a voluntary exit, then kills the process.
func (p *Process) Stop(grace time.Duration) error {
	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}

	if err := p.cmd.Process.Kill(); err != nil {
		select {
		case <-p.done:
			return nil
		default:
		}
		if errors.Is(err, os.ErrProcessDone) {
			return nil
		}
		return fmt.Errorf("kill %s: %w", p.name, err)
	}
	<-p.done
	return nil
}
