// Package postgres provides PostgreSQL-backed implementations of the store
// interfaces, using database/sql over the pgx stdlib driver.
//
// The document-shaped fields of a todo (tags, attachments, shared_with) are
// stored as JSONB columns on the todo row, so a todo mutation is a single-row
// write with find-and-update atomicity per document, never a multi-document
// transaction.
package postgres
