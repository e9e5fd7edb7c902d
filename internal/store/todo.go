package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
)

// TodoListFilter narrows ListByOwner results. The zero value is the default
// listing: non-archived todos only.
type TodoListFilter struct {
	// IncludeArchived includes archived todos alongside active ones.
	IncludeArchived bool

	// ArchivedOnly restricts the listing to archived todos.
	ArchivedOnly bool

	// StarredOnly restricts the listing to starred, non-archived todos.
	StarredOnly bool
}

// TodoStore defines the interface for todo data persistence.
//
// All owner-scoped methods treat "exists but not owned by the caller" exactly
// like "does not exist" and return ErrTodoNotFound.
type TodoStore interface {
	// Create saves a new todo to the store.
	// Returns validation errors from the domain Todo if data is invalid.
	Create(ctx context.Context, todo *domain.Todo) error

	// GetByID retrieves a todo by its unique ID regardless of ownership.
	// Returns ErrTodoNotFound if the todo does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error)

	// GetByIDForOwner retrieves a todo by ID scoped to the given owner.
	// Returns ErrTodoNotFound if the todo does not exist or is owned by
	// someone else.
	GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Todo, error)

	// ListByOwner retrieves the owner's todos, newest first, narrowed by the
	// given filter.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter TodoListFilter) ([]*domain.Todo, error)

	// ListSharedWith retrieves the non-archived todos shared with the given
	// user, newest first.
	ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error)

	// Update persists the todo's current state. The update is scoped to the
	// todo's ID and owner; it refreshes the updated_at timestamp.
	// Returns ErrTodoNotFound if no matching owned todo exists.
	Update(ctx context.Context, todo *domain.Todo) error

	// Delete permanently removes a todo scoped to the given owner.
	// Returns ErrTodoNotFound if no matching owned todo exists.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a new TodoStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TodoStore
}
