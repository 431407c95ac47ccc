package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnavailable_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")

	err := Unavailable(cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestUnavailable_NilCause(t *testing.T) {
	assert.NoError(t, Unavailable(nil))
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"argument null", ErrArgumentNull, true},
		{"wrapped invalid operation", fmt.Errorf("auction 3: %w", ErrInvalidOperation), true},
		{"time ordering", ErrTimeOrdering, true},
		{"store unavailable", Unavailable(errors.New("boom")), true},
		{"repository not found", ErrorNotFound, false},
		{"repository duplicate", ErrorAlreadyExists, false},
		{"foreign error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDomainError(tt.err))
		})
	}
}
