package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/handshelf/internal/engine"
	"github.com/ayusman/handshelf/internal/gesture"
)

const (
	clientBuffer = 64
	writeWait    = time.Second
)

var upgrader = websocket.Upgrader{CheckOrigin: sameOrigin}

// eventMessage is the wire form of an engine event.
type eventMessage struct {
	Type      gesture.Kind `json:"type"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Mode      gesture.Mode `json:"mode"`
	Timestamp int64        `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub pushes engine events to WebSocket clients. Publish never
// blocks: a client whose buffer is full misses the message.
type EventHub struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewEventHub creates an empty hub. A nil logger uses slog.Default().
func NewEventHub(logger *slog.Logger) *EventHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventHub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Publish encodes ev and queues it for every client. It is an
// engine.Handler.
func (h *EventHub) Publish(ev engine.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(eventMessage{
		Type:      ev.Kind,
		X:         ev.X,
		Y:         ev.Y,
		Mode:      ev.Mode,
		Timestamp: ev.Timestamp.UnixMilli(),
	})
	if err != nil {
		h.logger.Error("encode event", "kind", ev.Kind, "error", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects or the hub is closed.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.add(c) {
		conn.Close()
		return
	}
	h.logger.Debug("event client connected", "remote", r.RemoteAddr, "clients", h.Clients())

	go h.writeLoop(c)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
	h.logger.Debug("event client disconnected", "remote", r.RemoteAddr)
}

func (h *EventHub) writeLoop(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(writeWait))
}

func (h *EventHub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *EventHub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client and rejects new ones.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
