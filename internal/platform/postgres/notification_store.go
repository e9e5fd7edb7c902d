package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/store"
)

const notificationColumns = `id, user_id, receiver_id, receiver_email, sender_id, sender_name,
	sender_email, title, message, todo_id, read, read_at, type, created_at`

// recipientPredicate matches a notification addressed to the caller through
// any of the three recipient forms: owned reference, receiver reference, or
// receiver email.
const recipientPredicate = `(user_id = $1 OR receiver_id = $1 OR receiver_email = $2)`

// PostgresNotificationStore implements the store.NotificationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNotificationStore struct {
	db store.DBTX
}

// NewPostgresNotificationStore creates a new PostgreSQL implementation of the
// NotificationStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
func NewPostgresNotificationStore(db store.DBTX) *PostgresNotificationStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	return &PostgresNotificationStore{db: db}
}

// Ensure PostgresNotificationStore implements store.NotificationStore interface
var _ store.NotificationStore = (*PostgresNotificationStore)(nil)

// Create implements store.NotificationStore.Create
func (s *PostgresNotificationStore) Create(ctx context.Context, notification *domain.Notification) error {
	log := logger.FromContext(ctx)

	if err := notification.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.db.ExecContext(ctx, query,
		notification.ID,
		notification.UserID,
		notification.ReceiverID,
		notification.ReceiverEmail,
		notification.SenderID,
		notification.SenderName,
		notification.SenderEmail,
		notification.Title,
		notification.Message,
		notification.TodoID,
		notification.Read,
		notification.ReadAt,
		notification.Type,
		notification.CreatedAt,
	)
	if err != nil {
		log.Error("failed to insert notification", "error", err, "notification_id", notification.ID)
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

// ListForRecipient implements store.NotificationStore.ListForRecipient
func (s *PostgresNotificationStore) ListForRecipient(ctx context.Context, callerID uuid.UUID, callerEmail string) ([]*domain.Notification, error) {
	log := logger.FromContext(ctx)

	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE ` + recipientPredicate + `
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, callerID, domain.NormalizeEmail(callerEmail))
	if err != nil {
		log.Error("failed to query notifications", "error", err, "user_id", callerID)
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notifications := []*domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating notification rows", "error", err, "user_id", callerID)
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

// MarkRead implements store.NotificationStore.MarkRead as a single atomic
// find-and-update: the ID match and the recipient predicate are evaluated in
// the same statement, so a caller can never flip a notification that is not
// addressed to them.
func (s *PostgresNotificationStore) MarkRead(ctx context.Context, id, callerID uuid.UUID, callerEmail string) (*domain.Notification, error) {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = NOW()
		WHERE id = $3 AND ` + recipientPredicate + `
		RETURNING ` + notificationColumns

	row := s.db.QueryRowContext(ctx, query, callerID, domain.NormalizeEmail(callerEmail), id)
	return scanNotification(row)
}

// WithTx implements store.NotificationStore.WithTx
func (s *PostgresNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore {
	return &PostgresNotificationStore{db: tx}
}

// scanNotification reads one notification row, mapping sql.ErrNoRows to
// ErrNotificationNotFound.
func scanNotification(row rowScanner) (*domain.Notification, error) {
	var (
		n          domain.Notification
		userID     uuid.NullUUID
		receiverID uuid.NullUUID
		readAt     sql.NullTime
	)

	err := row.Scan(
		&n.ID,
		&userID,
		&receiverID,
		&n.ReceiverEmail,
		&n.SenderID,
		&n.SenderName,
		&n.SenderEmail,
		&n.Title,
		&n.Message,
		&n.TodoID,
		&n.Read,
		&readAt,
		&n.Type,
		&n.CreatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err, store.ErrNotificationNotFound)
	}

	if userID.Valid {
		id := userID.UUID
		n.UserID = &id
	}
	if receiverID.Valid {
		id := receiverID.UUID
		n.ReceiverID = &id
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}

	return &n, nil
}
