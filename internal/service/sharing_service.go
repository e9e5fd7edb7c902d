package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/platform/mail"
	"github.com/phrazzld/taskhub-api/internal/redact"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// SharingService orchestrates sharing a todo with another user: authorize by
// ownership, mutate the shared-with membership idempotently, append to the
// notification ledger, push real-time events, and attempt best-effort email.
//
// Failure semantics are deliberately asymmetric. Recipient and todo resolution
// are hard failures that abort before any mutation. Everything after the todo
// mutation commits is soft: ledger, push, and email failures are logged and
// swallowed, and the caller always gets the updated todo back.
type SharingService struct {
	todoStore         store.TodoStore
	userStore         store.UserStore
	notificationStore store.NotificationStore
	emitter           EventEmitter
	mailer            mail.Mailer // nil when SMTP is not configured
	logger            *slog.Logger

	// mailWG tracks in-flight share emails so shutdown can wait for them.
	mailWG sync.WaitGroup
}

// NewSharingService creates a SharingService. mailer may be nil; email is then
// skipped entirely.
func NewSharingService(
	todoStore store.TodoStore,
	userStore store.UserStore,
	notificationStore store.NotificationStore,
	emitter EventEmitter,
	mailer mail.Mailer,
	log *slog.Logger,
) *SharingService {
	return &SharingService{
		todoStore:         todoStore,
		userStore:         userStore,
		notificationStore: notificationStore,
		emitter:           emitter,
		mailer:            mailer,
		logger:            log.With("component", "sharing_service"),
	}
}

// ShareTodo shares the owner's todo with the user registered under
// recipientEmail and returns the updated todo.
//
// Returns store.ErrUserNotFound if no account matches the email and
// store.ErrTodoNotFound if the todo does not exist or the caller does not own
// it. Re-sharing with an existing member returns the current todo without
// creating a second notification.
func (s *SharingService) ShareTodo(ctx context.Context, ownerID, todoID uuid.UUID, recipientEmail string) (*domain.Todo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if recipientEmail == "" {
		return nil, ErrEmptyRecipientEmail
	}

	recipient, err := s.userStore.GetByEmail(ctx, recipientEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve share recipient: %w", err)
	}

	todo, err := s.todoStore.GetByIDForOwner(ctx, todoID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve todo for sharing: %w", err)
	}

	// Idempotent re-share: membership unchanged, no notification side effects.
	if !todo.ShareWith(recipient.ID) {
		return todo, nil
	}

	if err := s.todoStore.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to persist shared todo: %w", err)
	}

	// The sharing relationship is committed. Everything below is best effort
	// and must not surface to the caller.
	sender, err := s.userStore.GetByID(ctx, ownerID)
	if err != nil {
		log.Error("share committed but sender lookup failed, skipping notification",
			"error", redact.Error(err),
			"todo_id", todoID,
			"owner_id", ownerID)
		return todo, nil
	}

	s.notifyShared(ctx, log, sender, recipient, todo)

	return todo, nil
}

// notifyShared runs the post-commit side effects of a share: ledger entry,
// real-time pushes, and email. Each failure is logged and isolated from the
// others.
func (s *SharingService) notifyShared(ctx context.Context, log *slog.Logger, sender, recipient *domain.User, todo *domain.Todo) {
	notification, err := domain.NewSharedNotification(sender, domain.RecipientForAccount(recipient.ID), todo)
	if err != nil {
		log.Error("failed to build share notification",
			"error", redact.Error(err),
			"todo_id", todo.ID)
	} else if err := s.notificationStore.Create(ctx, notification); err != nil {
		log.Error("failed to persist share notification",
			"error", redact.Error(err),
			"todo_id", todo.ID,
			"recipient_id", recipient.ID)
	} else {
		s.emitter.EmitToUser(ctx, recipient.ID, EventNewNotification, notification)
	}

	s.emitter.EmitToUser(ctx, sender.ID, EventTodoUpdated, todo)

	if s.mailer == nil {
		return
	}

	// The send leaves the request path entirely: it runs detached from the
	// request's cancellation and a slow relay never delays the response.
	mailCtx := context.WithoutCancel(ctx)
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		if err := s.mailer.SendTodoShared(mailCtx, recipient.Email, sender, todo); err != nil {
			log.Warn("share email delivery failed",
				"error", redact.Error(err),
				"todo_id", todo.ID,
				"recipient_id", recipient.ID)
		}
	}()
}

// Wait blocks until all in-flight share emails have finished. Called during
// graceful shutdown.
func (s *SharingService) Wait() {
	s.mailWG.Wait()
}
