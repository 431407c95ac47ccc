package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: UniqueViolation, Message: "duplicate key"}
	fk := &pgconn.PgError{Code: "23503", Message: "foreign key"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, IsUniqueViolation(fk))
	assert.False(t, IsUniqueViolation(errors.New("duplicate key")))
	assert.False(t, IsUniqueViolation(nil))
}
