// Package pgerr classifies PostgreSQL errors surfaced through pgx.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// UniqueViolation is SQLSTATE 23505.
const UniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint failure.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == UniqueViolation
}
