package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/taskhub-api/internal/store"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unique violation code",
			err:  &pgconn.PgError{Code: uniqueViolationCode},
			want: true,
		},
		{
			name: "wrapped unique violation",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: uniqueViolationCode}),
			want: true,
		},
		{
			name: "other pg error code",
			err:  &pgconn.PgError{Code: "23503"}, // foreign key violation
			want: false,
		},
		{
			name: "non-pg error",
			err:  errors.New("boom"),
			want: false,
		},
		{
			name: "nil",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueViolation(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, MapError(nil, store.ErrTodoNotFound, store.ErrDuplicate))
	})

	t.Run("no rows maps to the not-found sentinel", func(t *testing.T) {
		err := MapError(sql.ErrNoRows, store.ErrNotificationNotFound, store.ErrDuplicate)
		assert.ErrorIs(t, err, store.ErrNotificationNotFound)
	})

	t.Run("unique violation maps to the duplicate sentinel", func(t *testing.T) {
		err := MapError(&pgconn.PgError{Code: uniqueViolationCode}, store.ErrUserNotFound, store.ErrEmailExists)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		inner := errors.New("connection reset")
		err := MapError(inner, store.ErrUserNotFound, store.ErrEmailExists)
		assert.ErrorIs(t, err, inner)
		assert.NotErrorIs(t, err, store.ErrUserNotFound)
	})
}
