package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/storybridge/internal/logging"
	"github.com/conneroisu/storybridge/internal/metrics"
)

// Live reload message types.
const (
	MessageComponentUpdate = "component_update"
	MessageFullReload      = "full_reload"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Messages buffered per client before it is dropped as too slow.
	sendBuffer = 32
)

// UpdateMessage is pushed to live reload clients.
type UpdateMessage struct {
	Type      string    `json:"type"`
	Target    string    `json:"target,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks live reload connections and fans messages out to them. A nil
// Hub ignores broadcasts.
type Hub struct {
	logger  logging.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a Hub.
func NewHub(logger logging.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Hub{
		logger:  logger.WithComponent("livereload"),
		metrics: m,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the connection until either
// side closes it. Origin checks are the caller's job.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The Origin header was validated against the configured origins.
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}

	h.serve(r.Context(), conn)
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close(websocket.StatusNormalClosure, "")

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	go h.writePump(ctx, cancel, c)

	// Client messages are ignored; reading keeps pings answered and notices
	// when the peer goes away.
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				h.logger.Debug(ctx, "WebSocket read ended", "error", err.Error())
			}
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, cancel context.CancelFunc, c *client) {
	defer cancel()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "")
				return
			}

			writeCtx, writeCancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			writeCancel()
			if err != nil {
				h.logger.Debug(ctx, "WebSocket write failed", "error", err.Error())
				return
			}

		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.SetLiveClients(len(h.clients))
	h.logger.Debug(context.Background(), "Client connected", "clients", len(h.clients))
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.SetLiveClients(len(h.clients))
	h.logger.Debug(context.Background(), "Client disconnected", "clients", len(h.clients))
}

// Broadcast sends msg to every client. Clients whose buffer is full are
// disconnected.
func (h *Hub) Broadcast(msg UpdateMessage) {
	if h == nil {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn(context.Background(), err, "Failed to marshal live reload message")
		data = []byte(`{"type":"` + MessageFullReload + `"}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropLocked(c)
		}
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}
