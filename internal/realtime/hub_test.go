package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn satisfies wsConn without a network.
type fakeConn struct{}

func (fakeConn) WriteMessage(int, []byte) error          { return nil }
func (fakeConn) ReadMessage() (int, []byte, error)       { return 0, nil, nil }
func (fakeConn) SetWriteDeadline(time.Time) error        { return nil }
func (fakeConn) SetReadDeadline(time.Time) error         { return nil }
func (fakeConn) SetReadLimit(int64)                      {}
func (fakeConn) SetPongHandler(func(appData string) error) {}
func (fakeConn) Close() error                            { return nil }

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return newClient(hub, fakeConn{}, userID)
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send queue closed unexpectedly")
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	c1 := newTestClient(hub, userID)
	c2 := newTestClient(hub, userID)

	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.SessionCount(userID))

	hub.Unregister(c1)
	assert.Equal(t, 1, hub.SessionCount(userID))

	hub.Unregister(c2)
	assert.Equal(t, 0, hub.SessionCount(userID))

	// Second unregister is a no-op, not a panic.
	hub.Unregister(c2)
}

func TestEmitToUserDeliversToAllSessions(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	otherID := uuid.New()

	c1 := newTestClient(hub, userID)
	c2 := newTestClient(hub, userID)
	other := newTestClient(hub, otherID)

	hub.Register(c1)
	hub.Register(c2)
	hub.Register(other)

	hub.EmitToUser(context.Background(), userID, "notification", map[string]string{"title": "hello"})

	for _, c := range []*Client{c1, c2} {
		ev := receiveEvent(t, c)
		assert.Equal(t, "notification", ev.Event)
		data, ok := ev.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "hello", data["title"])
	}

	// The other user's session must not receive the event.
	select {
	case raw := <-other.send:
		t.Fatalf("unexpected event delivered to other user: %s", raw)
	default:
	}
}

func TestEmitToUserWithNoSessionsIsNoOp(t *testing.T) {
	hub := NewHub()

	// Must not panic or error with an empty registry.
	hub.EmitToUser(context.Background(), uuid.New(), "todoUpdated", nil)
}

func TestEmitToUserDropsSlowConsumer(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	slow := newTestClient(hub, userID)
	hub.Register(slow)

	// Fill the queue past capacity. The overflowing emit drops the session.
	for i := 0; i <= sendQueueSize; i++ {
		hub.EmitToUser(context.Background(), userID, "todoUpdated", i)
	}

	assert.Equal(t, 0, hub.SessionCount(userID))

	// The queue was closed when the session was dropped.
	drained := 0
	for range slow.send {
		drained++
	}
	assert.Equal(t, sendQueueSize, drained)
}

func TestEventEnvelopeShape(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	c := newTestClient(hub, userID)
	hub.Register(c)

	hub.EmitToUser(context.Background(), userID, "todoDeleted", map[string]string{"id": "abc"})

	select {
	case raw := <-c.send:
		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Contains(t, decoded, "event")
		assert.Contains(t, decoded, "data")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}
