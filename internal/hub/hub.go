// Package hub fans out server-originated events to connected terminals and
// dashboards over WebSocket. Delivery is best-effort at-most-once: send order
// is preserved per connection, slow or closed connections are dropped
// silently, and a reconnecting client re-derives state via a fresh pull.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

var broadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "attendance_ws_broadcasts_total",
	Help: "Events fanned out to connected websocket clients.",
})

// Event is the envelope for every message crossing the socket.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals a payload into an Event envelope.
func NewEvent(typ string, payload any) Event {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("hub: payload marshal failed for %s: %v", typ, err)
		raw = nil
	}
	return Event{Type: typ, Data: raw}
}

// Hub maintains the set of live connections and broadcasts events to them.
// All set mutation happens on the Run goroutine.
type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a hub; call Run before serving connections.
func New() *Hub {
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
}

// Run owns the connection set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			c.enqueue(mustMarshal(NewEvent("welcome", map[string]string{"message": "connected"})))

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			broadcastsTotal.Inc()
			h.mu.RLock()
			targets := make([]*client, 0, len(h.clients))
			for c := range h.clients {
				targets = append(targets, c)
			}
			h.mu.RUnlock()
			for _, c := range targets {
				if !c.enqueue(msg) {
					h.drop(c)
				}
			}

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				c.closeSend()
				delete(h.clients, c)
			}
			h.mu.Unlock()
			close(h.done)
			return
		}
	}
}

// Broadcast queues an event for delivery to every live connection.
func (h *Hub) Broadcast(evt Event) {
	select {
	case h.broadcast <- mustMarshal(evt):
	default:
		log.Printf("hub: broadcast buffer full, dropping %s event", evt.Type)
	}
}

// ClientCount reports the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// drop removes a client idempotently and closes its send channel once.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
	}
}

func mustMarshal(evt Event) []byte {
	raw, err := json.Marshal(evt)
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return raw
}

// client is one websocket connection with a buffered outbound queue. The hub
// drops slow clients while readPump enqueues pong replies concurrently, so
// sendMu guards the channel against send-after-close.
type client struct {
	hub        *Hub
	conn       *websocket.Conn
	sendMu     sync.Mutex
	sendClosed bool
	send       chan []byte
	terminalID string
}

// enqueue offers a message without blocking; false means the client is too
// slow, or already dropped, and should be (or has been) removed.
func (c *client) enqueue(msg []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once.
func (c *client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Terminals are unauthenticated kiosk clients; origin is not checked.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: upgrade failed: %v", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump dispatches inbound messages by type; unrecognized types are
// ignored, not fatal.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var evt Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			continue
		}
		switch evt.Type {
		case "terminal_register":
			var data struct {
				TerminalID string `json:"terminal_id"`
			}
			_ = json.Unmarshal(evt.Data, &data)
			c.terminalID = data.TerminalID
			log.Printf("hub: terminal %q registered", c.terminalID)
		case "ping":
			c.enqueue(mustMarshal(Event{Type: "pong"}))
		default:
			// ignore
		}
	}
}

// writePump serializes all writes for one connection; order follows enqueue
// order.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
