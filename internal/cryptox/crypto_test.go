package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastParams keeps the suite quick; the format is identical to DefaultParams.
var fastParams = Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestHashPassword_Format(t *testing.T) {
	h, err := HashPassword("hunter22")
	require.NoError(t, err)

	parts := strings.Split(h, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, "m=19456,t=2,p=1", parts[3])
	assert.NotContains(t, h, "hunter22", "plaintext must never be stored")
}

func TestHashPassword_SaltedPerCall(t *testing.T) {
	h1, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)
	h2, err := HashPasswordWithParams("same", fastParams)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2, "two hashes of one password must differ by salt")
}

func TestVerifyPassword(t *testing.T) {
	h, err := HashPasswordWithParams("correct horse", fastParams)
	require.NoError(t, err)

	ok, err := VerifyPassword("correct horse", h)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("correct hors", h)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifyPassword("", h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_Malformed(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	}
	for _, enc := range tests {
		_, err := VerifyPassword("pw", enc)
		assert.ErrorIs(t, err, ErrMalformedHash, "input %q", enc)
	}
}

func TestHashPasswordWithParams_Invalid(t *testing.T) {
	_, err := HashPasswordWithParams("pw", Params{})
	require.Error(t, err)
}

func TestVerifyDecoy_UsesCallerParams(t *testing.T) {
	cheap := Params{Time: 1, Memory: 64, Threads: 1, SaltLen: 8, KeyLen: 16}

	for _, p := range []Params{fastParams, cheap} {
		encoded, err := decoyFor(p)
		require.NoError(t, err)
		got, _, _, err := decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, p, got)

		again, err := decoyFor(p)
		require.NoError(t, err)
		assert.Equal(t, encoded, again, "decoy is cached per params")
	}

	assert.NotPanics(t, func() {
		VerifyDecoy("anything", cheap)
		VerifyDecoy("anything", Params{})
	})
}
