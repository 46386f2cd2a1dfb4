package sse

import (
	"sync"

	"github.com/kbukum/podscribe/logger"
)

// clientBuffer bounds how far a slow client may fall behind before frames
// are dropped for it.
const clientBuffer = 256

// Broadcaster is what progress producers publish to.
type Broadcaster interface {
	Broadcast(eventType string, data []byte)
}

// Client is one connected stream.
type Client struct {
	id     string
	meta   map[string]string
	events chan Event
}

type ClientOption func(*Client)

func WithMetadata(key, value string) ClientOption {
	return func(c *Client) { c.meta[key] = value }
}

// WithSubject records the JWT subject of the connection.
func WithSubject(subject string) ClientOption { return WithMetadata("subject", subject) }

func NewClient(id string, opts ...ClientOption) *Client {
	c := &Client{id: id, meta: map[string]string{}, events: make(chan Event, clientBuffer)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) Subject() string             { return c.meta["subject"] }
func (c *Client) Metadata() map[string]string { return c.meta }

// Events is closed when the client is unregistered or the hub closes.
func (c *Client) Events() <-chan Event { return c.events }

// offer queues ev without blocking and reports whether it was accepted.
func (c *Client) offer(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Hub fans events out to the connected clients. Registering an ID that is
// already connected replaces, and closes, the previous client.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
	log     *logger.Logger
}

var _ Broadcaster = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{clients: map[string]*Client{}, log: logger.Get("sse")}
}

// Register adds c. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	if prev, ok := h.clients[c.id]; ok {
		close(prev.events)
	}
	h.clients[c.id] = c
	h.log.Debug("client registered", logger.Fields("client_id", c.id, "clients", len(h.clients)))
	return true
}

// Unregister removes c unless it has already been replaced.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.events)
		h.log.Debug("client unregistered", logger.Fields("client_id", c.id, "clients", len(h.clients)))
	}
}

// Broadcast never blocks; a client whose buffer is full misses the frame.
func (h *Hub) Broadcast(eventType string, data []byte) {
	ev := Event{Type: eventType, Data: data}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		if !c.offer(ev) {
			h.log.Warn("client lagging, frame dropped", logger.Fields("client_id", id, "event", eventType))
		}
	}
}

// Close disconnects every client and rejects new ones. Safe to call twice.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.events)
		delete(h.clients, id)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
