/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GERONlMO/pingtower/pkg/logger"
	"github.com/GERONlMO/pingtower/pkg/models"
)

const (
	clientSendBuffer = 32
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = 30 * time.Second
	maxClientMessage = 4096

	actionRefresh = "refresh"
)

// Message is the envelope written to websocket subscribers.
type Message struct {
	Topic string      `json:"topic"`
	Data  interface{} `json:"data"`
}

type clientRequest struct {
	Action string `json:"action"`
}

// Snapshotter produces the full dashboard.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]models.DashboardView, error)
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans dashboard messages out to websocket clients. Every client has
// its own writer goroutine; a client that cannot keep up is disconnected.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   logger.Logger
}

// NewHub creates a hub. An empty allowedOrigins accepts any origin.
func NewHub(allowedOrigins []string, log logger.Logger) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  log,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowedOrigins)
		},
	}

	return h
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 || origin == "" {
		return true
	}

	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}

	return false
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Broadcast queues the message for every client.
func (h *Hub) Broadcast(topic string, data interface{}) {
	payload, err := json.Marshal(Message{Topic: topic, Data: data})
	if err != nil {
		h.logger.Error().Err(err).Str("topic", topic).Msg("Failed to encode dashboard message")
		return
	}

	h.mu.RLock()

	var slow []*client

	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}

	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn().Str("client_addr", c.conn.RemoteAddr().String()).Msg("Dropping slow dashboard client")
		h.unregister(c)
	}
}

// ServeWS upgrades the request and streams dashboard messages until the
// client goes away. The full snapshot is sent on connect and on every
// {"action":"refresh"} request.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, source Snapshotter) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Str("origin", r.Header.Get("Origin")).
			Msg("Failed to upgrade to WebSocket")

		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientSendBuffer)}

	h.register(c)

	h.logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("Dashboard client connected")

	go h.writeLoop(c)

	ctx := r.Context()

	h.sendSnapshot(ctx, c, source)
	h.readLoop(ctx, c, source)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	delete(h.clients, c)
	close(c.send)
}

// enqueue delivers to one client; it reports false when the client is gone
// or saturated.
func (h *Hub) enqueue(c *client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}

	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) sendSnapshot(ctx context.Context, c *client, source Snapshotter) {
	views, err := source.Snapshot(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build dashboard snapshot")
		return
	}

	payload, err := json.Marshal(Message{Topic: TopicSnapshot, Data: views})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode dashboard snapshot")
		return
	}

	if !h.enqueue(c, payload) {
		h.logger.Warn().Str("client_addr", c.conn.RemoteAddr().String()).Msg("Snapshot not delivered")
	}
}

func (h *Hub) readLoop(ctx context.Context, c *client, source Snapshotter) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("client_addr", c.conn.RemoteAddr().String()).Msg("Dashboard client closed unexpectedly")
			}

			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var req clientRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.logger.Debug().Err(err).Msg("Ignoring malformed dashboard request")
			continue
		}

		if req.Action == actionRefresh {
			h.sendSnapshot(ctx, c, source)
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
