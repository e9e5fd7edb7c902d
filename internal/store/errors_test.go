package store_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskhub-api/internal/store"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "generic not found", err: store.ErrNotFound, want: true},
		{name: "user not found", err: store.ErrUserNotFound, want: true},
		{name: "todo not found", err: store.ErrTodoNotFound, want: true},
		{name: "notification not found", err: store.ErrNotificationNotFound, want: true},
		{name: "wrapped todo not found", err: fmt.Errorf("lookup: %w", store.ErrTodoNotFound), want: true},
		{name: "duplicate is not not-found", err: store.ErrEmailExists, want: false},
		{name: "unrelated error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, store.IsDuplicateError(store.ErrDuplicate))
	assert.True(t, store.IsDuplicateError(store.ErrEmailExists))
	assert.True(t, store.IsDuplicateError(fmt.Errorf("create: %w", store.ErrEmailExists)))
	assert.False(t, store.IsDuplicateError(store.ErrNotFound))
}

func TestStoreError(t *testing.T) {
	inner := errors.New("connection reset")
	err := store.NewStoreError("todo", "update", "exec failed", inner)

	assert.Contains(t, err.Error(), "update operation on todo failed")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, inner)

	noInner := store.NewStoreError("user", "create", "bad data", nil)
	assert.Equal(t, "create operation on user failed: bad data", noInner.Error())
}
