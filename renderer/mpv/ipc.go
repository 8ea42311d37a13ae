// SPDX-License-Identifier: EPL-2.0

package mpv

import (
	"context"
	"errors"
	"fmt"

	"github.com/dexterlb/mpvipc"
)

var (
	ErrClosed  = errors.New("mpv: ipc connection closed")
	ErrCommand = errors.New("mpv: command failed")
)

const eventBacklog = 32

// ipcConn is an mpvipc connection with a bounded event queue and a channel
// closed once mpv hangs up.
type ipcConn struct {
	conn   *mpvipc.Connection
	events chan *mpvipc.Event
	stop   chan struct{}
	closed chan struct{}
}

func dialIPC(path string) (*ipcConn, error) {
	conn := mpvipc.NewConnection(path)
	if err := conn.Open(); err != nil {
		return nil, err
	}

	c := &ipcConn{
		conn:   conn,
		events: make(chan *mpvipc.Event, eventBacklog),
		closed: make(chan struct{}),
	}
	in, stop := conn.NewEventListener()
	c.stop = stop

	go c.pump(in)
	go func() {
		conn.WaitUntilClosed()
		close(c.closed)
	}()
	return c, nil
}

// pump keeps the newest events; a full queue drops the oldest one.
func (c *ipcConn) pump(in <-chan *mpvipc.Event) {
	for ev := range in {
		select {
		case c.events <- ev:
		default:
			select {
			case <-c.events:
			default:
			}
			c.events <- ev
		}
	}
}

// call sends args and waits for the reply, the connection to drop or ctx.
func (c *ipcConn) call(ctx context.Context, args ...any) (any, error) {
	select {
	case <-c.closed:
		return nil, ErrClosed
	default:
	}

	type reply struct {
		data any
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		data, err := c.conn.Call(args...)
		done <- reply{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v: %w", ErrCommand, args[0], r.err)
		}
		return r.data, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, fmt.Errorf("%v: %w", args[0], ctx.Err())
	}
}

// drainEvents discards queued events.
func (c *ipcConn) drainEvents() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}

func (c *ipcConn) close() error {
	err := c.conn.Close()
	close(c.stop)
	<-c.closed
	return err
}
