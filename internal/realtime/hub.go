package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains userID -> set of connections and pushes events to them.
// A user may hold several connections (multiple tabs or devices); every one
// gets each event. Delivery is fire-and-forget: a slow or gone connection is
// dropped, never waited on.
type Hub struct {
	rooms  map[string]map[string]*Client // userID -> clientID -> client
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		logger: logger,
	}
}

// Register adds a client to its user's room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.UserID] == nil {
		h.rooms[c.UserID] = make(map[string]*Client)
	}
	h.rooms[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", "client_id", c.ID, "user_id", c.UserID)
}

// Unregister removes a client from its user's room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.UserID)
		}
	}
	h.mu.Unlock()
	close(c.send)
	h.logger.Debug("client disconnected", "client_id", c.ID, "user_id", c.UserID)
}

// Emit pushes an event to every connection in the room. Implements the
// realtime bus used by the services; a room with no connections is a no-op.
func (h *Hub) Emit(room, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal realtime payload", "event", event, "error", err)
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
			// Slow consumer; skip rather than block the emitter.
		}
	}
}

// Connections reports how many connections the user currently holds.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}
