package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// NotificationService implements the notification ledger operations.
type NotificationService struct {
	// db enables transactional flows; when nil (as in tests over in-memory
	// stores) operations run directly against the stores.
	db                *sql.DB
	notificationStore store.NotificationStore
	userStore         store.UserStore
	emitter           EventEmitter
	logger            *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(
	db *sql.DB,
	notificationStore store.NotificationStore,
	userStore store.UserStore,
	emitter EventEmitter,
	log *slog.Logger,
) *NotificationService {
	return &NotificationService{
		db:                db,
		notificationStore: notificationStore,
		userStore:         userStore,
		emitter:           emitter,
		logger:            log.With("component", "notification_service"),
	}
}

// List retrieves the caller's notifications, newest first. A notification is
// the caller's through any of the recipient predicates, so the caller's email
// is needed alongside their ID.
func (s *NotificationService) List(ctx context.Context, callerID uuid.UUID) ([]*domain.Notification, error) {
	caller, err := s.userStore.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller for notification listing: %w", err)
	}
	return s.notificationStore.ListForRecipient(ctx, callerID, caller.Email)
}

// MarkRead flips the read flag on a notification addressed to the caller and
// returns the updated record. The recipient check and the write happen in one
// atomic find-and-update; a notification that exists but is not the caller's
// yields the same ErrNotificationNotFound as one that does not exist.
func (s *NotificationService) MarkRead(ctx context.Context, callerID, notificationID uuid.UUID) (*domain.Notification, error) {
	caller, err := s.userStore.GetByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller for read-state update: %w", err)
	}
	return s.notificationStore.MarkRead(ctx, notificationID, callerID, caller.Email)
}

// CreateAddressed appends a share ledger entry addressed by receiver email,
// for recipients the caller identifies by address rather than account. When
// the email does belong to a registered account the entry is additionally
// bound to that account and pushed to its live sessions.
func (s *NotificationService) CreateAddressed(ctx context.Context, senderID, todoID uuid.UUID, receiverEmail, message string) (*domain.Notification, error) {
	if receiverEmail == "" {
		return nil, ErrEmptyRecipientEmail
	}

	sender, err := s.userStore.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	notification, err := domain.NewAddressedNotification(sender, domain.RecipientForEmail(receiverEmail), todoID, message)
	if err != nil {
		return nil, err
	}

	// The receiver lookup and the insert run in one transaction so the bound
	// account reference matches what existed when the entry was written.
	resolveAndCreate := func(ctx context.Context, users store.UserStore, notifications store.NotificationStore) error {
		// An unknown email is fine: the entry stays addressed by email only.
		if receiver, err := users.GetByEmail(ctx, receiverEmail); err == nil {
			notification.ReceiverID = &receiver.ID
		} else if !store.IsNotFoundError(err) {
			return fmt.Errorf("failed to resolve receiver: %w", err)
		}
		return notifications.Create(ctx, notification)
	}

	if s.db != nil {
		err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
			return resolveAndCreate(ctx, s.userStore.WithTx(tx), s.notificationStore.WithTx(tx))
		})
	} else {
		err = resolveAndCreate(ctx, s.userStore, s.notificationStore)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	if notification.ReceiverID != nil {
		s.emitter.EmitToUser(ctx, *notification.ReceiverID, EventNewNotification, notification)
	}

	return notification, nil
}
