package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/phrazzld/taskhub-api/internal/store"
)

// PostgreSQL error codes.
const uniqueViolationCode = "23505"

// IsUniqueViolation checks if the given error is a PostgreSQL unique
// constraint violation, such as a duplicate email address.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// MapError translates low-level database errors into the store package's
// sentinel errors so callers never have to depend on driver details.
// notFound and duplicate select the entity-specific sentinels to use.
func MapError(err error, notFound, duplicate error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	case IsUniqueViolation(err):
		return duplicate
	default:
		return fmt.Errorf("database error: %w", err)
	}
}

// mapNoRows is the common case where only the not-found mapping applies.
func mapNoRows(err error, notFound error) error {
	return MapError(err, notFound, store.ErrDuplicate)
}
