package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// todoColumns is the column list shared by every todo query.
const todoColumns = `id, owner_id, title, description, notes, completed, starred, archived,
	priority, category, due_date, tags, attachments, shared_with, created_at, updated_at`

// PostgresTodoStore implements the store.TodoStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTodoStore struct {
	db store.DBTX
}

// NewPostgresTodoStore creates a new PostgreSQL implementation of the
// TodoStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTodoStore(db store.DBTX) *PostgresTodoStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	return &PostgresTodoStore{db: db}
}

// Ensure PostgresTodoStore implements store.TodoStore interface
var _ store.TodoStore = (*PostgresTodoStore)(nil)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Create implements store.TodoStore.Create
func (s *PostgresTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContext(ctx)

	if err := todo.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	tags, attachments, sharedWith, err := marshalTodoDocuments(todo)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO todos (` + todoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = s.db.ExecContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.Notes,
		todo.Completed,
		todo.Starred,
		todo.Archived,
		todo.Priority,
		todo.Category,
		todo.DueDate,
		tags,
		attachments,
		sharedWith,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to insert todo", "error", err, "todo_id", todo.ID)
		return fmt.Errorf("failed to insert todo: %w", err)
	}

	return nil
}

// GetByID implements store.TodoStore.GetByID
func (s *PostgresTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	return scanTodo(s.db.QueryRowContext(ctx, query, id))
}

// GetByIDForOwner implements store.TodoStore.GetByIDForOwner
func (s *PostgresTodoStore) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND owner_id = $2`
	return scanTodo(s.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListByOwner implements store.TodoStore.ListByOwner
func (s *PostgresTodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter store.TodoListFilter) ([]*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE owner_id = $1`

	switch {
	case filter.ArchivedOnly:
		query += ` AND archived = TRUE`
	case filter.StarredOnly:
		query += ` AND starred = TRUE AND archived = FALSE`
	case !filter.IncludeArchived:
		query += ` AND archived = FALSE`
	}

	query += ` ORDER BY created_at DESC`

	return s.queryTodos(ctx, query, ownerID)
}

// ListSharedWith implements store.TodoStore.ListSharedWith
func (s *PostgresTodoStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error) {
	// shared_with is a JSONB array of user ID strings; containment checks
	// membership.
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE shared_with @> $1::jsonb AND archived = FALSE
		ORDER BY created_at DESC`

	member, err := json.Marshal([]uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal membership probe: %w", err)
	}

	return s.queryTodos(ctx, query, member)
}

// Update implements store.TodoStore.Update
func (s *PostgresTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	log := logger.FromContext(ctx)

	if err := todo.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	tags, attachments, sharedWith, err := marshalTodoDocuments(todo)
	if err != nil {
		return err
	}

	query := `
		UPDATE todos
		SET title = $3, description = $4, notes = $5, completed = $6, starred = $7,
			archived = $8, priority = $9, category = $10, due_date = $11,
			tags = $12, attachments = $13, shared_with = $14, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.Notes,
		todo.Completed,
		todo.Starred,
		todo.Archived,
		todo.Priority,
		todo.Category,
		todo.DueDate,
		tags,
		attachments,
		sharedWith,
	)
	if err != nil {
		log.Error("failed to update todo", "error", err, "todo_id", todo.ID)
		return fmt.Errorf("failed to update todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrTodoNotFound
	}

	return nil
}

// Delete implements store.TodoStore.Delete
func (s *PostgresTodoStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete todo", "error", err, "todo_id", id)
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrTodoNotFound
	}

	return nil
}

// WithTx implements store.TodoStore.WithTx
func (s *PostgresTodoStore) WithTx(tx *sql.Tx) store.TodoStore {
	return &PostgresTodoStore{db: tx}
}

// queryTodos runs a multi-row todo query and scans the results.
func (s *PostgresTodoStore) queryTodos(ctx context.Context, query string, args ...any) ([]*domain.Todo, error) {
	log := logger.FromContext(ctx)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query todos", "error", err)
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	todos := []*domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		log.Error("error iterating todo rows", "error", err)
		return nil, fmt.Errorf("error iterating todo rows: %w", err)
	}

	return todos, nil
}

// scanTodo reads one todo row, decoding the JSONB document columns.
func scanTodo(row rowScanner) (*domain.Todo, error) {
	var (
		todo        domain.Todo
		dueDate     sql.NullTime
		tags        []byte
		attachments []byte
		sharedWith  []byte
	)

	err := row.Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Title,
		&todo.Description,
		&todo.Notes,
		&todo.Completed,
		&todo.Starred,
		&todo.Archived,
		&todo.Priority,
		&todo.Category,
		&dueDate,
		&tags,
		&attachments,
		&sharedWith,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, mapNoRows(err, store.ErrTodoNotFound)
	}

	if dueDate.Valid {
		t := dueDate.Time
		todo.DueDate = &t
	}

	if err := json.Unmarshal(tags, &todo.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	if err := json.Unmarshal(attachments, &todo.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	if err := json.Unmarshal(sharedWith, &todo.SharedWith); err != nil {
		return nil, fmt.Errorf("failed to decode shared_with: %w", err)
	}

	return &todo, nil
}

// marshalTodoDocuments encodes the JSONB document columns of a todo.
func marshalTodoDocuments(todo *domain.Todo) (tags, attachments, sharedWith []byte, err error) {
	if todo.Tags == nil {
		todo.Tags = []string{}
	}
	if todo.Attachments == nil {
		todo.Attachments = []domain.Attachment{}
	}
	if todo.SharedWith == nil {
		todo.SharedWith = []uuid.UUID{}
	}

	tags, err = json.Marshal(todo.Tags)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	attachments, err = json.Marshal(todo.Attachments)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode attachments: %w", err)
	}
	sharedWith, err = json.Marshal(todo.SharedWith)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode shared_with: %w", err)
	}

	return tags, attachments, sharedWith, nil
}
