// Package feed publishes soundpad events to WebSocket clients.
//
// Messages are JSON text frames with the envelope {type, id, ts, data}.
// The first message on connect is "state_init" carrying a snapshot.
package feed

import (
	"context"
	"log/slog"
	"sync"
)

// Hub tracks connected clients and fans messages out to them.
// Clients whose send buffer is full are disconnected.
type Hub struct {
	logger *slog.Logger

	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}

	sendBuf int
}

// HubConfig sizes the hub queues. Zero values use defaults.
type HubConfig struct {
	// SendBuf is the per-client outbound queue size.
	SendBuf int
	// BroadcastBuf is the hub inbound broadcast queue size.
	BroadcastBuf int
}

// NewHub creates a hub. Call Run to start it.
func NewHub(logger *slog.Logger, cfg HubConfig) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	sendBuf := cfg.SendBuf
	if sendBuf <= 0 {
		sendBuf = 32
	}
	bcastBuf := cfg.BroadcastBuf
	if bcastBuf <= 0 {
		bcastBuf = 128
	}

	return &Hub{
		logger:     logger.With("component", "feed"),
		broadcast:  make(chan []byte, bcastBuf),
		register:   make(chan *client, 64),
		unregister: make(chan *client, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
		sendBuf:    sendBuf,
	}
}

// Run processes hub events until ctx is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("feed client connected", "remote_addr", c.remoteAddr, "clients", n)

		case c := <-h.unregister:
			h.removeClient(c, "unregister")

		case msg := <-h.broadcast:
			var slow []*client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.removeClient(c, "slow_client")
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast enqueues a serialized frame. It never blocks; a full queue drops the frame.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("feed broadcast queue full, dropping message", "bytes", len(msg))
	}
}

func (h *Hub) add(c *client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}

func (h *Hub) removeClient(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.close()
		h.logger.Info("feed client disconnected", "remote_addr", c.remoteAddr, "reason", reason, "clients", n)
	}
}
