// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebSocketPath is where hosts connect.
const WebSocketPath = "/glove"

const wsWriteTimeout = 50 * time.Millisecond

// Reports waiting for one host's writer goroutine. A full backlog drops
// the newest, like the serial link.
const wsBacklog = 4

// WebSocket serves reports to every connected host as text frames and
// queues the text frames hosts send back.
type WebSocket struct {
	*Queue
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}

	srv *http.Server
}

// wsClient is one connected host with its own writer goroutine, so a
// slow host never holds up the sample loop or the other hosts.
type wsClient struct {
	conn *websocket.Conn
	out  chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{
		conn: conn,
		out:  make(chan []byte, wsBacklog),
		done: make(chan struct{}),
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// NewWebSocket returns a handler that is not yet listening. Mount it on
// any mux, or use ListenWebSocket.
func NewWebSocket() *WebSocket {
	return &WebSocket{
		Queue: NewQueue(DefaultQueueSize),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // hosts connect from localhost tooling
			},
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// ListenWebSocket serves the handler at WebSocketPath on addr.
func ListenWebSocket(addr string) (*WebSocket, error) {
	ws := NewWebSocket()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("websocket listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(WebSocketPath, ws)
	ws.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := ws.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("websocket: server error: %v", err)
		}
	}()
	logrus.Infof("websocket: listening on ws://%s%s", ln.Addr(), WebSocketPath)
	return ws, nil
}

func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("websocket: upgrade error: %v", err)
		return
	}

	c := newWSClient(conn)
	ws.mu.Lock()
	ws.clients[c] = struct{}{}
	ws.mu.Unlock()
	logrus.Infof("websocket: host connected from %s", conn.RemoteAddr())

	go ws.writeLoop(c)
	defer ws.drop(c)
	for {
		kind, msg, err := conn.ReadMessage()
		if err != nil {
			logrus.Debugf("websocket: read error: %v", err)
			return
		}
		if kind == websocket.TextMessage {
			ws.Push(msg)
		}
	}
}

func (ws *WebSocket) writeLoop(c *wsClient) {
	for {
		select {
		case <-c.done:
			return
		case report := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, report); err != nil {
				logrus.Debugf("websocket: write error: %v", err)
				ws.drop(c)
				return
			}
		}
	}
}

func (ws *WebSocket) drop(c *wsClient) {
	ws.mu.Lock()
	_, ok := ws.clients[c]
	delete(ws.clients, c)
	ws.mu.Unlock()
	c.close()
	if ok && c.conn != nil {
		logrus.Infof("websocket: host %s disconnected", c.conn.RemoteAddr())
	}
}

// Clients returns the number of connected hosts.
func (ws *WebSocket) Clients() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.clients)
}

// Output hands report to every host's writer goroutine without blocking.
// A host whose backlog is full misses the report; one that cannot take a
// frame within the write timeout is disconnected.
func (ws *WebSocket) Output(report []byte) {
	m := make([]byte, len(report))
	copy(m, report)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	for c := range ws.clients {
		select {
		case c.out <- m:
		default:
			logrus.Debug("websocket: backlog full, report dropped")
		}
	}
}

// Close disconnects every host and stops the listener if there is one.
func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	clients := ws.clients
	ws.clients = make(map[*wsClient]struct{})
	ws.mu.Unlock()
	for c := range clients {
		c.close()
	}

	if ws.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return ws.srv.Shutdown(ctx)
}
