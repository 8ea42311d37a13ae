// SPDX-License-Identifier: EPL-2.0

package headtrack

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ik5/quadbinaural/logger"
	"github.com/ik5/quadbinaural/orientation"
)

const (
	maxMessageSize = 1024
	pongTime       = 30 * time.Second
	pingTime       = pongTime * 9 / 10
	writeWait      = 5 * time.Second

	// DefaultBuffer is the number of vectors held for a slow consumer.
	DefaultBuffer = 4
)

// Server is an http.Handler accepting look vector feeds.
type Server struct {
	upgrader websocket.Upgrader
	log      *logger.Logger

	out chan orientation.LookVector

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewServer buffers up to buffer vectors; DefaultBuffer when buffer < 1.
func NewServer(buffer int, log *logger.Logger) *Server {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxMessageSize,
			WriteBufferSize: maxMessageSize,
			// Trackers are native apps and headsets, not browser pages.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:   logger.OrNop(log).Component("headtrack"),
		out:   make(chan orientation.LookVector, buffer),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// Vectors yields decoded look vectors. It is closed by Close.
func (s *Server) Vectors() <-chan orientation.LookVector { return s.out }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	log := s.log.Extend(s.log.With().Str("remote", r.RemoteAddr))
	log.Info().Msg("tracker connected")

	s.read(conn, log)

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
	log.Info().Msg("tracker disconnected")
}

func (s *Server) read(conn *websocket.Conn, log *logger.Logger) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongTime))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTime))
	})

	done := make(chan struct{})
	defer close(done)
	go ping(conn, done)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Msg("read")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		v, err := Decode(data)
		if err != nil {
			log.Debug().Err(err).Msg("frame dropped")
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongTime))
		s.publish(v)
	}
}

func ping(conn *websocket.Conn, done <-chan struct{}) {
	t := time.NewTicker(pingTime)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// publish never blocks: when the buffer is full the oldest vector is dropped.
func (s *Server) publish(v orientation.LookVector) {
	for {
		select {
		case s.out <- v:
			return
		default:
		}
		select {
		case <-s.out:
		default:
		}
	}
}

// Close disconnects every tracker and closes Vectors.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}
