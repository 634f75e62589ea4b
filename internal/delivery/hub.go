package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/observability/metrics"
)

const writeTimeout = 10 * time.Second

// client wraps a connection with its write lock. gorilla connections allow
// only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub implements Sender over registered gorilla WebSocket connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	metrics *metrics.Metrics
}

// NewHub creates an empty Hub.
func NewHub(m *metrics.Metrics) *Hub {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Hub{
		clients: make(map[string]*client),
		metrics: m,
	}
}

// Register makes a connection addressable by its connection ID.
func (h *Hub) Register(connectionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connectionID] = &client{conn: conn}
	log.Debug().Str("connectionId", connectionID).Int("total", len(h.clients)).Msg("Connection registered")
}

// Unregister removes a connection. The caller owns closing the socket.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connectionID)
	log.Debug().Str("connectionId", connectionID).Int("total", len(h.clients)).Msg("Connection unregistered")
}

// Send serializes payload as JSON and writes it to the connection.
// Returns ErrConnectionGone if the connection is not registered.
func (h *Hub) Send(ctx context.Context, connectionID string, payload any) error {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		h.metrics.RecordDeliveryError()
		return ErrConnectionGone
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)

	if err := c.conn.WriteJSON(payload); err != nil {
		h.metrics.RecordDeliveryError()
		log.Warn().Err(err).Str("connectionId", connectionID).Msg("Failed to deliver payload")
		return err
	}
	return nil
}

// Active returns the number of registered connections.
func (h *Hub) Active() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
