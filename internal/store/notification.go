package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// NotificationStore defines the interface for the notification ledger.
type NotificationStore interface {
	// Create appends a new entry to the notification ledger.
	// Returns validation errors from the domain Notification if data is invalid.
	Create(ctx context.Context, notification *domain.Notification) error

	// ListForRecipient retrieves the notifications addressed to the caller
	// through any of the recipient predicates (owned reference, receiver
	// reference, or receiver email), newest first.
	ListForRecipient(ctx context.Context, callerID uuid.UUID, callerEmail string) ([]*domain.Notification, error)

	// MarkRead atomically finds the notification addressed to the caller and
	// flips read=true, stamping read_at. The recipient match is an OR across
	// the owned reference, the receiver reference, and the receiver email.
	// Returns the updated notification, or ErrNotificationNotFound if no
	// entry matches both the ID and a recipient predicate.
	MarkRead(ctx context.Context, id, callerID uuid.UUID, callerEmail string) (*domain.Notification, error)

	// WithTx returns a new NotificationStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NotificationStore
}
