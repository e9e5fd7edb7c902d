package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

const (
	// writeWait is the deadline for writing a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before the connection is
	// considered dead.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait so pings go out before the
	// read deadline fires.
	pingPeriod = (pongWait * 9) / 10

	// sendQueueSize bounds the per-session outbound queue. A session that
	// falls this far behind is dropped by the hub.
	sendQueueSize = 32
)

// wsConn abstracts the subset of *websocket.Conn the client uses.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is a single WebSocket session bound to an authenticated user.
type Client struct {
	hub    *Hub
	conn   wsConn
	userID uuid.UUID
	send   chan []byte
}

// NewClient wraps an upgraded connection for the given user. The caller is
// expected to Register the client with the hub and then start Run.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return newClient(hub, conn, userID)
}

func newClient(hub *Hub, conn wsConn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendQueueSize),
	}
}

// UserID returns the authenticated user this session belongs to.
func (c *Client) UserID() uuid.UUID {
	return c.userID
}

// Run services the connection until it closes, pumping queued events out and
// draining inbound frames to keep pong handling alive. It blocks, so callers
// run it from the upgrade handler's goroutine.
func (c *Client) Run(ctx context.Context) {
	done := make(chan struct{})
	go c.readPump(ctx, done)
	c.writePump(ctx, done)
}

// readPump discards inbound messages; the protocol is server-push only.
// Reading is still required to process control frames and detect closure.
func (c *Client) readPump(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	c.conn.SetReadLimit(512)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.FromContext(ctx).Debug("websocket read error",
					"error", err,
					"user_id", c.userID)
			}
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			logger.FromContext(ctx).Debug("websocket close error",
				"error", err,
				"user_id", c.userID)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the queue.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
