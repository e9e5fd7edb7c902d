// Package realtime maintains the registry of connected WebSocket sessions and
// fans out server-pushed events to every live session of a given user.
//
// A user may hold multiple concurrent sessions (several browser tabs, devices).
// Each session registers one Client keyed by the user's ID; emitting an event
// to a user delivers it to all of that user's sessions. Emitting to a user
// with no live sessions is a silent no-op.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

// Event is the wire envelope for every server-pushed message. Data carries
// the event-specific payload, already in its JSON-serializable form.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Hub tracks connected clients grouped by user ID and routes events to them.
// All methods are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register adds a client to the set of live sessions for its user.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[c.userID]
	if !ok {
		sessions = make(map[*Client]struct{})
		h.clients[c.userID] = sessions
	}
	sessions[c] = struct{}{}
}

// Unregister removes a client from the registry and closes its send queue.
// Unregistering a client twice is harmless.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := sessions[c]; !ok {
		return
	}
	delete(sessions, c)
	if len(sessions) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// EmitToUser serializes the event once and queues it on every live session of
// the given user. A user with no connected sessions receives nothing and no
// error is reported. A session whose send queue is full is dropped from the
// registry rather than blocking delivery to the user's other sessions.
func (h *Hub) EmitToUser(ctx context.Context, userID uuid.UUID, event string, data any) {
	payload, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		logger.FromContext(ctx).Error("failed to marshal realtime event",
			"error", err,
			"event", event,
			"user_id", userID)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[userID]
	if !ok {
		return
	}

	for c := range sessions {
		select {
		case c.send <- payload:
		default:
			// Slow consumer. Drop the session so one stalled tab cannot
			// hold up the rest.
			delete(sessions, c)
			close(c.send)
		}
	}
	if len(sessions) == 0 {
		delete(h.clients, userID)
	}
}

// SessionCount reports the number of live sessions for a user.
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
