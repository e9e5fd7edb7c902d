package service

import (
	"context"

	"github.com/google/uuid"
)

// Event names pushed over the real-time channel.
const (
	// EventNewNotification tells the recipient's sessions a notification was
	// just created for them.
	EventNewNotification = "newNotification"

	// EventTodoUpdated tells the acting user's other sessions a todo changed.
	EventTodoUpdated = "todoUpdated"

	// EventTodoDeleted tells the acting user's other sessions a todo was
	// permanently removed.
	EventTodoDeleted = "todoDeleted"
)

// EventEmitter pushes a named event to every live session of a user.
// Delivery is fire-and-forget: implementations never report failure and a
// user with no live sessions receives nothing.
//
// Satisfied by *realtime.Hub.
type EventEmitter interface {
	EmitToUser(ctx context.Context, userID uuid.UUID, event string, data any)
}
