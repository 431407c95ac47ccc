// Package common defines shared constants and sentinel errors used across
// the auction host. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors. They never leave the services layer.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Argument errors, raised before any mutation.
	ErrArgumentNull       = errors.New("argument is nil")
	ErrArgumentInvalid    = errors.New("invalid argument")
	ErrArgumentOutOfRange = errors.New("argument out of range")

	// Naming errors.
	ErrNameAlreadyInUse = errors.New("name already in use")
	ErrInexistentName   = errors.New("inexistent name")

	// State errors: vanished entities, closed auctions, expired sessions.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrTimeOrdering is returned when a requested time precedes the site clock.
	ErrTimeOrdering = errors.New("time ordering violation")

	// ErrStoreUnavailable marks an unexpected persistence failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Unavailable wraps an unexpected collaborator failure so that it matches
// ErrStoreUnavailable while keeping the original cause reachable through
// errors.Is / errors.As.
func Unavailable(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, cause)
}

// IsDomainError reports whether err already belongs to the public taxonomy,
// in which case it must be propagated unchanged.
func IsDomainError(err error) bool {
	for _, kind := range []error{
		ErrArgumentNull,
		ErrArgumentInvalid,
		ErrArgumentOutOfRange,
		ErrNameAlreadyInUse,
		ErrInexistentName,
		ErrInvalidOperation,
		ErrTimeOrdering,
		ErrStoreUnavailable,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
