package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

type todoFixture struct {
	svc     *TodoService
	todos   *mockTodoStore
	emitter *mockEmitter

	alice *domain.User
	bob   *domain.User
}

func newTodoFixture(t *testing.T) *todoFixture {
	t.Helper()
	f := &todoFixture{
		todos:   newMockTodoStore(),
		emitter: &mockEmitter{},
		alice:   testUser(t, "Alice", "alice@example.com"),
		bob:     testUser(t, "Bob", "bob@example.com"),
	}
	f.svc = NewTodoService(f.todos, f.emitter, slog.Default())
	return f
}

func strPtr(s string) *string { return &s }

func TestTodoCreate(t *testing.T) {
	ctx := context.Background()
	f := newTodoFixture(t)

	priority := domain.PriorityHigh
	todo, err := f.svc.Create(ctx, f.alice.ID, "Write tests", TodoUpdate{
		Description: strPtr("table driven"),
		Priority:    &priority,
		Tags:        []string{"dev"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Write tests", todo.Title)
	assert.Equal(t, domain.PriorityHigh, todo.Priority)
	assert.Equal(t, []string{"dev"}, todo.Tags)

	assert.Len(t, f.emitter.eventsFor(f.alice.ID, EventTodoUpdated), 1)

	t.Run("empty title rejected", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.alice.ID, "   ", TodoUpdate{})
		assert.ErrorIs(t, err, domain.ErrEmptyTitle)
	})

	t.Run("invalid priority rejected", func(t *testing.T) {
		bad := domain.Priority("urgent")
		_, err := f.svc.Create(ctx, f.alice.ID, "Valid title", TodoUpdate{Priority: &bad})
		assert.ErrorIs(t, err, domain.ErrInvalidPriority)
	})
}

func TestTodoUpdateScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newTodoFixture(t)

	todo, err := f.svc.Create(ctx, f.alice.ID, "Original", TodoUpdate{})
	require.NoError(t, err)

	t.Run("owner can update", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, f.alice.ID, todo.ID, TodoUpdate{Title: strPtr("Renamed")})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
	})

	t.Run("non-owner sees not found", func(t *testing.T) {
		_, err := f.svc.Update(ctx, f.bob.ID, todo.ID, TodoUpdate{Title: strPtr("Stolen")})
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})
}

func TestTodoToggles(t *testing.T) {
	ctx := context.Background()
	f := newTodoFixture(t)

	todo, err := f.svc.Create(ctx, f.alice.ID, "Flags", TodoUpdate{})
	require.NoError(t, err)

	starred, err := f.svc.ToggleStar(ctx, f.alice.ID, todo.ID)
	require.NoError(t, err)
	assert.True(t, starred.Starred)

	unstarred, err := f.svc.ToggleStar(ctx, f.alice.ID, todo.ID)
	require.NoError(t, err)
	assert.False(t, unstarred.Starred)

	archived, err := f.svc.ToggleArchive(ctx, f.alice.ID, todo.ID)
	require.NoError(t, err)
	assert.True(t, archived.Archived)
}

func TestTodoDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("soft delete archives and stays fetchable", func(t *testing.T) {
		f := newTodoFixture(t)
		todo, err := f.svc.Create(ctx, f.alice.ID, "Keep me", TodoUpdate{})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, f.alice.ID, todo.ID, false))

		// Excluded from the default listing, included when asked for.
		defaults, err := f.svc.List(ctx, f.alice.ID, store.TodoListFilter{})
		require.NoError(t, err)
		assert.Empty(t, defaults)

		all, err := f.svc.List(ctx, f.alice.ID, store.TodoListFilter{IncludeArchived: true})
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].Archived)

		// Soft delete announces an update, not a removal.
		assert.Len(t, f.emitter.eventsFor(f.alice.ID, EventTodoDeleted), 0)
	})

	t.Run("permanent delete removes the record", func(t *testing.T) {
		f := newTodoFixture(t)
		todo, err := f.svc.Create(ctx, f.alice.ID, "Gone", TodoUpdate{})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, f.alice.ID, todo.ID, true))

		_, err = f.svc.Get(ctx, f.alice.ID, todo.ID)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
		assert.Len(t, f.emitter.eventsFor(f.alice.ID, EventTodoDeleted), 1)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		f := newTodoFixture(t)
		todo, err := f.svc.Create(ctx, f.alice.ID, "Protected", TodoUpdate{})
		require.NoError(t, err)

		err = f.svc.Delete(ctx, f.bob.ID, todo.ID, true)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})
}

func TestTodoGetVisibility(t *testing.T) {
	ctx := context.Background()
	f := newTodoFixture(t)

	todo, err := f.svc.Create(ctx, f.alice.ID, "Visible", TodoUpdate{})
	require.NoError(t, err)

	t.Run("owner sees it", func(t *testing.T) {
		got, err := f.svc.Get(ctx, f.alice.ID, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, todo.ID, got.ID)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, f.bob.ID, todo.ID)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})

	t.Run("shared-with user sees it", func(t *testing.T) {
		stored, err := f.todos.GetByID(ctx, todo.ID)
		require.NoError(t, err)
		stored.ShareWith(f.bob.ID)
		require.NoError(t, f.todos.Update(ctx, stored))

		got, err := f.svc.Get(ctx, f.bob.ID, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, todo.ID, got.ID)

		shared, err := f.svc.ListShared(ctx, f.bob.ID)
		require.NoError(t, err)
		require.Len(t, shared, 1)
	})
}

func TestTodoAttachments(t *testing.T) {
	ctx := context.Background()
	f := newTodoFixture(t)

	todo, err := f.svc.Create(ctx, f.alice.ID, "With files", TodoUpdate{})
	require.NoError(t, err)

	updated, att, err := f.svc.AddAttachment(ctx, f.alice.ID, todo.ID, "report.pdf", "/uploads/report.pdf")
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, "report.pdf", att.Filename)

	t.Run("remove unknown attachment is not found", func(t *testing.T) {
		_, err := f.svc.RemoveAttachment(ctx, f.alice.ID, todo.ID, f.bob.ID)
		assert.ErrorIs(t, err, store.ErrTodoNotFound)
	})

	t.Run("remove existing attachment", func(t *testing.T) {
		after, err := f.svc.RemoveAttachment(ctx, f.alice.ID, todo.ID, att.ID)
		require.NoError(t, err)
		assert.Empty(t, after.Attachments)
	})
}
