package live

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/vmirror/pkg/protocol"
)

// Connection defaults.
const (
	DefaultSendBuffer   = 64
	DefaultWriteTimeout = 10 * time.Second
)

// Hub tracks connected browsers and fans frames out to them.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// client is one websocket connection. Frames are queued on send and
// written by a dedicated goroutine.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger, clients: make(map[string]*client)}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues f on every client. A client whose queue is full is
// disconnected rather than blocking the flush.
func (h *Hub) Broadcast(ctx context.Context, f *protocol.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data := f.Encode()

	h.mu.RLock()
	var slow []*client
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow client", "session", c.id)
		h.drop(c)
	}
	return nil
}

// attach registers conn and queues first as its first frame.
func (h *Hub) attach(conn *websocket.Conn, first *protocol.Frame) *client {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, DefaultSendBuffer),
	}
	c.send <- first.Encode()

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.writeLoop(c)
	return c
}

// queue sends data to one client.
func (h *Hub) queue(c *client, data []byte) {
	h.mu.RLock()
	_, ok := h.clients[c.id]
	if ok {
		select {
		case c.send <- data:
		default:
			ok = false
		}
	}
	h.mu.RUnlock()
	if !ok {
		h.drop(c)
	}
}

// drop unregisters c and closes its connection.
func (h *Hub) drop(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		delete(h.clients, c.id)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	})
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(DefaultWriteTimeout))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			h.logger.Debug("write failed", "session", c.id, "error", err)
			h.drop(c)
			return
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.drop(c)
	}
}
