package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/taskhub-api/internal/domain"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// mockUserStore is an in-memory UserStore for service tests.
type mockUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	getByEmailErr error
	getByIDErr    error
}

func newMockUserStore(users ...*domain.User) *mockUserStore {
	s := &mockUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *mockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if s.getByIDErr != nil {
		return nil, s.getByIDErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if s.getByEmailErr != nil {
		return nil, s.getByEmailErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	normalized := domain.NormalizeEmail(email)
	for _, user := range s.users {
		if user.Email == normalized {
			copied := *user
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *mockUserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	s.users[user.ID] = user
	return nil
}

func (s *mockUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// mockTodoStore is an in-memory TodoStore for service tests.
type mockTodoStore struct {
	mu    sync.Mutex
	todos map[uuid.UUID]*domain.Todo

	updateErr error
}

func newMockTodoStore(todos ...*domain.Todo) *mockTodoStore {
	s := &mockTodoStore{todos: make(map[uuid.UUID]*domain.Todo)}
	for _, t := range todos {
		s.todos[t.ID] = t
	}
	return s
}

func (s *mockTodoStore) Create(ctx context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos[todo.ID] = cloneTodo(todo)
	return nil
}

func (s *mockTodoStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok {
		return nil, store.ErrTodoNotFound
	}
	return cloneTodo(todo), nil
}

func (s *mockTodoStore) GetByIDForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todo, ok := s.todos[id]
	if !ok || todo.OwnerID != ownerID {
		return nil, store.ErrTodoNotFound
	}
	return cloneTodo(todo), nil
}

func (s *mockTodoStore) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter store.TodoListFilter) ([]*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Todo
	for _, todo := range s.todos {
		if todo.OwnerID != ownerID {
			continue
		}
		switch {
		case filter.ArchivedOnly:
			if !todo.Archived {
				continue
			}
		case filter.StarredOnly:
			if !todo.Starred || todo.Archived {
				continue
			}
		case !filter.IncludeArchived:
			if todo.Archived {
				continue
			}
		}
		out = append(out, cloneTodo(todo))
	}
	return out, nil
}

func (s *mockTodoStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Todo
	for _, todo := range s.todos {
		if !todo.Archived && todo.IsSharedWith(userID) {
			out = append(out, cloneTodo(todo))
		}
	}
	return out, nil
}

func (s *mockTodoStore) Update(ctx context.Context, todo *domain.Todo) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.todos[todo.ID]
	if !ok || existing.OwnerID != todo.OwnerID {
		return store.ErrTodoNotFound
	}
	s.todos[todo.ID] = cloneTodo(todo)
	return nil
}

func (s *mockTodoStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.todos[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *mockTodoStore) WithTx(tx *sql.Tx) store.TodoStore { return s }

func cloneTodo(todo *domain.Todo) *domain.Todo {
	copied := *todo
	copied.Tags = append([]string(nil), todo.Tags...)
	copied.Attachments = append([]domain.Attachment(nil), todo.Attachments...)
	copied.SharedWith = append([]uuid.UUID(nil), todo.SharedWith...)
	return &copied
}

// mockNotificationStore is an in-memory NotificationStore for service tests.
type mockNotificationStore struct {
	mu            sync.Mutex
	notifications []*domain.Notification

	createErr error
}

func (s *mockNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *n
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *mockNotificationStore) ListForRecipient(ctx context.Context, callerID uuid.UUID, callerEmail string) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.IsAddressedTo(callerID, callerEmail) {
			copied := *n
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *mockNotificationStore) MarkRead(ctx context.Context, id, callerID uuid.UUID, callerEmail string) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.ID == id && n.IsAddressedTo(callerID, callerEmail) {
			n.MarkRead(time.Now())
			copied := *n
			return &copied, nil
		}
	}
	return nil, store.ErrNotificationNotFound
}

func (s *mockNotificationStore) WithTx(tx *sql.Tx) store.NotificationStore { return s }

func (s *mockNotificationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notifications)
}

// mockEmitter records emitted events instead of delivering them.
type mockEmitter struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	userID uuid.UUID
	event  string
	data   any
}

func (e *mockEmitter) EmitToUser(ctx context.Context, userID uuid.UUID, event string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emittedEvent{userID: userID, event: event, data: data})
}

func (e *mockEmitter) eventsFor(userID uuid.UUID, event string) []emittedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []emittedEvent
	for _, ev := range e.events {
		if ev.userID == userID && ev.event == event {
			out = append(out, ev)
		}
	}
	return out
}

// mockMailer records send attempts and can simulate transport failure or a
// slow relay (blockUntil, when set, stalls the send until closed).
type mockMailer struct {
	mu         sync.Mutex
	sent       []string
	sendErr    error
	blockUntil chan struct{}
}

func (m *mockMailer) SendTodoShared(ctx context.Context, recipientEmail string, sender *domain.User, todo *domain.Todo) error {
	if m.blockUntil != nil {
		<-m.blockUntil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, recipientEmail)
	return nil
}

func (m *mockMailer) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

var errMailDown = errors.New("smtp connect refused")
