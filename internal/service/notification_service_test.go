package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

type notificationFixture struct {
	svc           *NotificationService
	notifications *mockNotificationStore
	users         *mockUserStore
	emitter       *mockEmitter

	alice *domain.User
	bob   *domain.User
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	f := &notificationFixture{
		notifications: &mockNotificationStore{},
		emitter:       &mockEmitter{},
		alice:         testUser(t, "Alice", "alice@example.com"),
		bob:           testUser(t, "Bob", "bob@example.com"),
	}
	f.users = newMockUserStore(f.alice, f.bob)
	f.svc = NewNotificationService(nil, f.notifications, f.users, f.emitter, slog.Default())
	return f
}

func seedNotification(t *testing.T, f *notificationFixture, mutate func(*domain.Notification)) *domain.Notification {
	t.Helper()
	todo := testTodo(t, f.alice.ID, "Seeded task")
	n, err := domain.NewSharedNotification(f.alice, domain.RecipientForAccount(f.bob.ID), todo)
	require.NoError(t, err)
	if mutate != nil {
		mutate(n)
		require.NoError(t, n.Validate())
	}
	require.NoError(t, f.notifications.Create(context.Background(), n))
	return n
}

func TestNotificationMarkRead(t *testing.T) {
	ctx := context.Background()

	t.Run("owned recipient reference", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := seedNotification(t, f, nil)

		updated, err := f.svc.MarkRead(ctx, f.bob.ID, n.ID)
		require.NoError(t, err)
		assert.True(t, updated.Read)
		require.NotNil(t, updated.ReadAt)
	})

	t.Run("receiver reference", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := seedNotification(t, f, func(n *domain.Notification) {
			n.UserID = nil
			n.ReceiverID = &f.bob.ID
		})

		updated, err := f.svc.MarkRead(ctx, f.bob.ID, n.ID)
		require.NoError(t, err)
		assert.True(t, updated.Read)
	})

	t.Run("receiver email match", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := seedNotification(t, f, func(n *domain.Notification) {
			n.UserID = nil
			n.ReceiverEmail = "bob@example.com"
		})

		updated, err := f.svc.MarkRead(ctx, f.bob.ID, n.ID)
		require.NoError(t, err)
		assert.True(t, updated.Read)
	})

	t.Run("caller matching no predicate gets not found", func(t *testing.T) {
		f := newNotificationFixture(t)
		n := seedNotification(t, f, nil)

		_, err := f.svc.MarkRead(ctx, f.alice.ID, n.ID)
		assert.ErrorIs(t, err, store.ErrNotificationNotFound)
	})

	t.Run("unknown notification gets not found", func(t *testing.T) {
		f := newNotificationFixture(t)

		_, err := f.svc.MarkRead(ctx, f.bob.ID, uuid.New())
		assert.ErrorIs(t, err, store.ErrNotificationNotFound)
	})
}

func TestNotificationList(t *testing.T) {
	ctx := context.Background()
	f := newNotificationFixture(t)

	seedNotification(t, f, nil)
	seedNotification(t, f, func(n *domain.Notification) {
		n.UserID = nil
		n.ReceiverEmail = "bob@example.com"
	})
	// One for alice that bob must not see.
	todo := testTodo(t, f.bob.ID, "Bob's task")
	forAlice, err := domain.NewSharedNotification(f.bob, domain.RecipientForAccount(f.alice.ID), todo)
	require.NoError(t, err)
	require.NoError(t, f.notifications.Create(ctx, forAlice))

	bobList, err := f.svc.List(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, bobList, 2)

	aliceList, err := f.svc.List(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.Len(t, aliceList, 1)
}

func TestNotificationCreateAddressed(t *testing.T) {
	ctx := context.Background()

	t.Run("known receiver email binds the account and pushes", func(t *testing.T) {
		f := newNotificationFixture(t)
		todoID := uuid.New()

		n, err := f.svc.CreateAddressed(ctx, f.alice.ID, todoID, "Bob@Example.com", "please review")
		require.NoError(t, err)
		require.NotNil(t, n.ReceiverID)
		assert.Equal(t, f.bob.ID, *n.ReceiverID)
		assert.Equal(t, "bob@example.com", n.ReceiverEmail)
		assert.Equal(t, "please review", n.Message)
		assert.Equal(t, "Alice", n.SenderName)

		assert.Len(t, f.emitter.eventsFor(f.bob.ID, EventNewNotification), 1)
	})

	t.Run("unknown receiver email stays addressed by email only", func(t *testing.T) {
		f := newNotificationFixture(t)

		n, err := f.svc.CreateAddressed(ctx, f.alice.ID, uuid.New(), "stranger@example.com", "")
		require.NoError(t, err)
		assert.Nil(t, n.ReceiverID)
		assert.Equal(t, "stranger@example.com", n.ReceiverEmail)
		assert.NotEmpty(t, n.Message)

		assert.Empty(t, f.emitter.events)
	})

	t.Run("empty receiver email rejected", func(t *testing.T) {
		f := newNotificationFixture(t)

		_, err := f.svc.CreateAddressed(ctx, f.alice.ID, uuid.New(), "", "")
		assert.ErrorIs(t, err, ErrEmptyRecipientEmail)
	})
}
