package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// TodoUpdate carries the mutable fields of a todo update. Nil pointers leave
// the corresponding field unchanged.
type TodoUpdate struct {
	Title       *string
	Description *string
	Notes       *string
	Completed   *bool
	Priority    *domain.Priority
	Category    *domain.Category
	DueDate     *time.Time
	ClearDue    bool
	Tags        []string
}

// TodoService implements the ownership-scoped todo operations. Every mutation
// pushes an event to the acting owner's own sessions so other open tabs stay
// in sync.
type TodoService struct {
	todoStore store.TodoStore
	emitter   EventEmitter
	logger    *slog.Logger
}

// NewTodoService creates a TodoService.
func NewTodoService(todoStore store.TodoStore, emitter EventEmitter, log *slog.Logger) *TodoService {
	return &TodoService{
		todoStore: todoStore,
		emitter:   emitter,
		logger:    log.With("component", "todo_service"),
	}
}

// List retrieves the owner's todos narrowed by the filter, newest first.
func (s *TodoService) List(ctx context.Context, ownerID uuid.UUID, filter store.TodoListFilter) ([]*domain.Todo, error) {
	return s.todoStore.ListByOwner(ctx, ownerID, filter)
}

// ListShared retrieves the non-archived todos other users shared with the caller.
func (s *TodoService) ListShared(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error) {
	return s.todoStore.ListSharedWith(ctx, userID)
}

// Get retrieves a single todo. The caller sees it if they own it or it is
// shared with them; otherwise ErrTodoNotFound, same as a missing todo.
func (s *TodoService) Get(ctx context.Context, callerID, todoID uuid.UUID) (*domain.Todo, error) {
	todo, err := s.todoStore.GetByID(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if todo.OwnerID != callerID && !todo.IsSharedWith(callerID) {
		return nil, store.ErrTodoNotFound
	}
	return todo, nil
}

// Create makes a new todo owned by the caller and announces it to their
// sessions.
func (s *TodoService) Create(ctx context.Context, ownerID uuid.UUID, title string, update TodoUpdate) (*domain.Todo, error) {
	todo, err := domain.NewTodo(ownerID, title)
	if err != nil {
		return nil, err
	}
	applyUpdate(todo, update)
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.todoStore.Create(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.emitter.EmitToUser(ctx, ownerID, EventTodoUpdated, todo)
	return todo, nil
}

// Update applies the given field changes to an owned todo.
func (s *TodoService) Update(ctx context.Context, ownerID, todoID uuid.UUID, update TodoUpdate) (*domain.Todo, error) {
	return s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
		applyUpdate(todo, update)
		return todo.Validate()
	})
}

// ToggleStar flips the starred flag on an owned todo.
func (s *TodoService) ToggleStar(ctx context.Context, ownerID, todoID uuid.UUID) (*domain.Todo, error) {
	return s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
		todo.Starred = !todo.Starred
		return nil
	})
}

// ToggleArchive flips the archived flag on an owned todo.
func (s *TodoService) ToggleArchive(ctx context.Context, ownerID, todoID uuid.UUID) (*domain.Todo, error) {
	return s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
		todo.Archived = !todo.Archived
		return nil
	})
}

// Delete removes an owned todo. The default mode is a soft delete: the todo is
// archived and retained, and the owner's sessions get a todoUpdated event.
// With permanent=true the record is removed entirely and the sessions get a
// todoDeleted event instead.
func (s *TodoService) Delete(ctx context.Context, ownerID, todoID uuid.UUID, permanent bool) error {
	if !permanent {
		_, err := s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
			todo.Archived = true
			return nil
		})
		return err
	}

	if err := s.todoStore.Delete(ctx, todoID, ownerID); err != nil {
		return err
	}
	s.emitter.EmitToUser(ctx, ownerID, EventTodoDeleted, map[string]uuid.UUID{"id": todoID})
	return nil
}

// AddAttachment records an uploaded file against an owned todo. The file is
// already on disk; this persists the metadata and returns the new attachment.
func (s *TodoService) AddAttachment(ctx context.Context, ownerID, todoID uuid.UUID, filename, url string) (*domain.Todo, domain.Attachment, error) {
	var att domain.Attachment
	todo, err := s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
		att = todo.AddAttachment(filename, url)
		return nil
	})
	if err != nil {
		return nil, domain.Attachment{}, err
	}
	return todo, att, nil
}

// RemoveAttachment deletes an attachment record from an owned todo.
// Returns ErrTodoNotFound if the attachment does not exist on the todo, so the
// handler maps both missing todo and missing attachment to the same response.
func (s *TodoService) RemoveAttachment(ctx context.Context, ownerID, todoID, attachmentID uuid.UUID) (*domain.Todo, error) {
	return s.mutate(ctx, ownerID, todoID, func(todo *domain.Todo) error {
		if !todo.RemoveAttachment(attachmentID) {
			return store.ErrTodoNotFound
		}
		return nil
	})
}

// mutate loads an owned todo, applies fn, persists, and emits todoUpdated to
// the owner's sessions.
func (s *TodoService) mutate(ctx context.Context, ownerID, todoID uuid.UUID, fn func(*domain.Todo) error) (*domain.Todo, error) {
	todo, err := s.todoStore.GetByIDForOwner(ctx, todoID, ownerID)
	if err != nil {
		return nil, err
	}

	if err := fn(todo); err != nil {
		return nil, err
	}

	if err := s.todoStore.Update(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	s.emitter.EmitToUser(ctx, ownerID, EventTodoUpdated, todo)
	return todo, nil
}

func applyUpdate(todo *domain.Todo, update TodoUpdate) {
	if update.Title != nil {
		todo.Title = *update.Title
	}
	if update.Description != nil {
		todo.Description = *update.Description
	}
	if update.Notes != nil {
		todo.Notes = *update.Notes
	}
	if update.Completed != nil {
		todo.Completed = *update.Completed
	}
	if update.Priority != nil {
		todo.Priority = *update.Priority
	}
	if update.Category != nil {
		todo.Category = *update.Category
	}
	if update.ClearDue {
		todo.DueDate = nil
	} else if update.DueDate != nil {
		todo.DueDate = update.DueDate
	}
	if update.Tags != nil {
		todo.Tags = update.Tags
	}
}
