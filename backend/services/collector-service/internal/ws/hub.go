package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"studyspace/backend/services/collector-service/internal/models"
)

// Message types sent to dashboards.
const (
	MessageSnapshot = "snapshot"
	MessageReading  = "reading"
)

// SnapshotMessage is sent once per connection with the current status array.
type SnapshotMessage struct {
	Type     string                    `json:"type"`
	Readings []models.OccupancyReading `json:"readings"`
}

// ReadingMessage announces one accepted reading.
type ReadingMessage struct {
	Type    string                  `json:"type"`
	Reading models.OccupancyReading `json:"reading"`
}

// Hub tracks live feed clients and fans readings out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *zap.Logger
	onCount func(int)
}

// NewHub builds hub. onCount, when set, observes the client count after every change.
func NewHub(logger *zap.Logger, onCount func(int)) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
		onCount: onCount,
	}
}

// Add registers new client.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.observe(n)
}

// Remove removes client.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()
	h.observe(n)
}

// Count returns connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishReading implements service.ReadingPublisher.
func (h *Hub) PublishReading(reading models.OccupancyReading) {
	payload, err := json.Marshal(ReadingMessage{Type: MessageReading, Reading: reading})
	if err != nil {
		h.logger.Error("failed to encode reading message", zap.Error(err))
		return
	}
	h.Broadcast(payload)
}

// Broadcast enqueues msg on every client without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Send(msg)
	}
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.Close()
	}
}

func (h *Hub) observe(n int) {
	if h.onCount != nil {
		h.onCount(n)
	}
}
