package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/bingo-backend/internal/relay"
)

// Hub maps participant handles to live connections. It implements relay.Publisher.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:  logger.With("component", "hub"),
		clients: make(map[string]*client),
	}
}

// Publish - queues the event for the handle's connection. It never blocks.
func (that *Hub) Publish(handle string, event relay.Event) {
	log := that.logger.With("method", "Publish", "handle", handle, "action", event.Action())

	data, err := relay.Encode(event)
	if err != nil {
		log.Error("failed to encode event", "error", err)
		return
	}

	that.mu.RLock()
	c, ok := that.clients[handle]
	that.mu.RUnlock()

	if !ok {
		log.Debug("no connection for handle")
		return
	}

	if !c.enqueue(data) {
		log.Warn("client is not keeping up, closing connection")
		c.close()
	}
}

// Len - number of live connections.
func (that *Hub) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.clients)
}

// CloseAll - drops every connection, used on shutdown.
func (that *Hub) CloseAll() {
	that.mu.Lock()
	clients := make([]*client, 0, len(that.clients))
	for _, c := range that.clients {
		clients = append(clients, c)
	}
	that.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (that *Hub) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.clients[c.handle] = c
}

func (that *Hub) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.clients[c.handle] == c {
		delete(that.clients, c.handle)
	}
}
