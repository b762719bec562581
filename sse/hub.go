package sse

import (
	"path/filepath"
	"sync"

	"github.com/kbukum/standin/logger"
)

const clientBuffer = 64

// Client is a connected SSE listener.
type Client struct {
	id        string
	sessionID string
	events    chan Event
	log       *logger.Logger
}

// NewClient creates a client listening to sessionID.
func NewClient(id, sessionID string) *Client {
	return &Client{
		id:        id,
		sessionID: sessionID,
		events:    make(chan Event, clientBuffer),
		log:       logger.Get("sse"),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() string { return c.id }

// SessionID returns the session the client listens to.
func (c *Client) SessionID() string { return c.sessionID }

// Events returns the channel of events to write to the connection.
func (c *Client) Events() <-chan Event { return c.events }

// send queues an event. It returns false and drops the event when the
// client is too slow to keep up.
func (c *Client) send(e Event) bool {
	select {
	case c.events <- e:
		return true
	default:
		c.log.Warn("client channel full, dropping event", logger.Fields(
			"client_id", c.id,
			logger.FieldKind, e.Type,
		))
		return false
	}
}

// Close closes the client's event channel.
func (c *Client) Close() { close(c.events) }

type message struct {
	pattern string
	event   Event
}

// Hub manages SSE clients and broadcasts events to them. All mutations of
// the client set happen on the Run goroutine.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		log:        logger.Get("sse"),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client registered", logger.Fields("client_id", client.id, "total_clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.Close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("client unregistered", logger.Fields("client_id", client.id, "total_clients", n))

		case msg := <-h.broadcast:
			h.broadcastWithPattern(msg.pattern, msg.event)
		}
	}
}

// Stop closes all clients and makes Run return. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.Close()
		delete(h.clients, id)
	}
}

// Register adds a client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// BroadcastToPattern sends event to every client whose id matches the glob
// pattern. Events published after Stop are discarded.
func (h *Hub) BroadcastToPattern(pattern string, event Event) {
	select {
	case h.broadcast <- message{pattern: pattern, event: event}:
	case <-h.done:
	}
}

func (h *Hub) broadcastWithPattern(pattern string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	matched := 0
	for id, client := range h.clients {
		ok, err := filepath.Match(pattern, id)
		if err != nil {
			h.log.Error("pattern match error", logger.Fields("pattern", pattern, logger.FieldError, err.Error()))
			return
		}
		if ok && client.send(event) {
			matched++
		}
	}
	h.log.Debug("broadcast", logger.Fields("pattern", pattern, logger.FieldKind, event.Type, "match_count", matched))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var _ Broadcaster = (*Hub)(nil)
