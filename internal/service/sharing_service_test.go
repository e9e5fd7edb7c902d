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

func testUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(name, email, "password123")
	require.NoError(t, err)
	return user
}

func testTodo(t *testing.T, ownerID uuid.UUID, title string) *domain.Todo {
	t.Helper()
	todo, err := domain.NewTodo(ownerID, title)
	require.NoError(t, err)
	return todo
}

type sharingFixture struct {
	svc           *SharingService
	todos         *mockTodoStore
	users         *mockUserStore
	notifications *mockNotificationStore
	emitter       *mockEmitter
	mailer        *mockMailer

	alice *domain.User
	bob   *domain.User
	todo  *domain.Todo
}

func newSharingFixture(t *testing.T) *sharingFixture {
	t.Helper()

	alice := testUser(t, "Alice", "alice@example.com")
	bob := testUser(t, "Bob", "bob@example.com")
	todo := testTodo(t, alice.ID, "Quarterly report")

	f := &sharingFixture{
		todos:         newMockTodoStore(todo),
		users:         newMockUserStore(alice, bob),
		notifications: &mockNotificationStore{},
		emitter:       &mockEmitter{},
		mailer:        &mockMailer{},
		alice:         alice,
		bob:           bob,
		todo:          todo,
	}
	f.svc = NewSharingService(f.todos, f.users, f.notifications, f.emitter, f.mailer, slog.Default())
	return f
}

func TestShareTodo(t *testing.T) {
	ctx := context.Background()

	t.Run("successful share", func(t *testing.T) {
		f := newSharingFixture(t)

		updated, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, updated.IsSharedWith(f.bob.ID))

		// One ledger entry addressed to bob, unread, type shared.
		require.Equal(t, 1, f.notifications.count())
		n := f.notifications.notifications[0]
		require.NotNil(t, n.UserID)
		assert.Equal(t, f.bob.ID, *n.UserID)
		assert.Equal(t, domain.NotificationShared, n.Type)
		assert.False(t, n.Read)
		assert.Equal(t, "Alice", n.SenderName)
		assert.Equal(t, "alice@example.com", n.SenderEmail)
		assert.Contains(t, n.Title, "Quarterly report")

		// The persisted todo reflects the membership.
		stored, err := f.todos.GetByID(ctx, f.todo.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsSharedWith(f.bob.ID))

		f.svc.Wait()
		assert.Equal(t, []string{"bob@example.com"}, f.mailer.sentTo())
	})

	t.Run("recipient gets exactly one newNotification with sender name", func(t *testing.T) {
		f := newSharingFixture(t)

		_, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)

		events := f.emitter.eventsFor(f.bob.ID, EventNewNotification)
		require.Len(t, events, 1)
		payload, ok := events[0].data.(*domain.Notification)
		require.True(t, ok)
		assert.NotEmpty(t, payload.SenderName)

		// The sender's own sessions see the todo change, not the notification.
		assert.Len(t, f.emitter.eventsFor(f.alice.ID, EventTodoUpdated), 1)
		assert.Empty(t, f.emitter.eventsFor(f.alice.ID, EventNewNotification))
	})

	t.Run("re-share is idempotent", func(t *testing.T) {
		f := newSharingFixture(t)

		first, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		second, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "Bob@Example.COM")
		require.NoError(t, err)

		// Exactly one membership entry and one ledger entry after both calls.
		count := 0
		for _, id := range second.SharedWith {
			if id == f.bob.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, f.notifications.count())
		assert.Len(t, f.emitter.eventsFor(f.bob.ID, EventNewNotification), 1)
		assert.Equal(t, first.SharedWith, second.SharedWith)
	})

	t.Run("unknown recipient fails with not found before mutation", func(t *testing.T) {
		f := newSharingFixture(t)

		_, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		stored, getErr := f.todos.GetByID(ctx, f.todo.ID)
		require.NoError(t, getErr)
		assert.Empty(t, stored.SharedWith)
		assert.Equal(t, 0, f.notifications.count())
	})

	t.Run("sharing someone else's todo fails with not found", func(t *testing.T) {
		f := newSharingFixture(t)

		_, err := f.svc.ShareTodo(ctx, f.bob.ID, f.todo.ID, "bob@example.com")
		assert.ErrorIs(t, err, store.ErrTodoNotFound)

		stored, getErr := f.todos.GetByID(ctx, f.todo.ID)
		require.NoError(t, getErr)
		assert.Empty(t, stored.SharedWith)
	})

	t.Run("empty recipient email rejected", func(t *testing.T) {
		f := newSharingFixture(t)

		_, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "")
		assert.ErrorIs(t, err, ErrEmptyRecipientEmail)
	})

	t.Run("mail failure does not change the result", func(t *testing.T) {
		f := newSharingFixture(t)
		f.mailer.sendErr = errMailDown

		updated, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, updated.IsSharedWith(f.bob.ID))
		assert.Equal(t, 1, f.notifications.count())
		f.svc.Wait()
		assert.Empty(t, f.mailer.sentTo())
	})

	t.Run("slow mail relay does not delay the response", func(t *testing.T) {
		f := newSharingFixture(t)
		f.mailer.blockUntil = make(chan struct{})

		// ShareTodo must return while the relay is still stalled.
		updated, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, updated.IsSharedWith(f.bob.ID))
		assert.Equal(t, 1, f.notifications.count())
		assert.Empty(t, f.mailer.sentTo())

		close(f.mailer.blockUntil)
		f.svc.Wait()
		assert.Equal(t, []string{"bob@example.com"}, f.mailer.sentTo())
	})

	t.Run("no mailer configured skips email", func(t *testing.T) {
		f := newSharingFixture(t)
		f.svc = NewSharingService(f.todos, f.users, f.notifications, f.emitter, nil, slog.Default())

		updated, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, updated.IsSharedWith(f.bob.ID))
	})

	t.Run("ledger failure after commit still returns the shared todo", func(t *testing.T) {
		f := newSharingFixture(t)
		f.notifications.createErr = store.ErrTransactionFailed

		updated, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, updated.IsSharedWith(f.bob.ID))

		// No notification was stored and none was pushed, but the owner's
		// sessions still saw the todo change.
		assert.Equal(t, 0, f.notifications.count())
		assert.Empty(t, f.emitter.eventsFor(f.bob.ID, EventNewNotification))
		assert.Len(t, f.emitter.eventsFor(f.alice.ID, EventTodoUpdated), 1)
	})

	t.Run("persist failure aborts with error", func(t *testing.T) {
		f := newSharingFixture(t)
		f.todos.updateErr = store.ErrTransactionFailed

		_, err := f.svc.ShareTodo(ctx, f.alice.ID, f.todo.ID, "bob@example.com")
		assert.Error(t, err)
		assert.Equal(t, 0, f.notifications.count())
	})
}
