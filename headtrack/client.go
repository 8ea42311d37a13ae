// SPDX-License-Identifier: EPL-2.0

package headtrack

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ik5/quadbinaural/orientation"
)

// Client pushes look vectors to a Server.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to a feed such as ws://127.0.0.1:8090/look.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("headtrack: dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Send(v orientation.LookVector) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("headtrack: send: %w", err)
	}
	return nil
}

// Close says goodbye and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return c.conn.Close()
}
