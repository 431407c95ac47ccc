// Package cryptox implements salted, iterated password hashing for site
// accounts. Hashes are self-describing PHC-style strings:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<hash>
//
// with salt and hash in unpadded standard base64.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/auctionhost/internal/common"
	"golang.org/x/crypto/argon2"
)

// Params tunes argon2id.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultParams follows the OWASP minimum for argon2id.
var DefaultParams = Params{Time: 2, Memory: 19 * 1024, Threads: 1, SaltLen: 16, KeyLen: 32}

// ErrMalformedHash is returned when a stored hash cannot be parsed.
var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an encoded hash of password with a fresh random salt.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultParams)
}

// HashPasswordWithParams is HashPassword with explicit argon2 parameters.
func HashPasswordWithParams(password string, p Params) (string, error) {
	if p.SaltLen <= 0 || p.KeyLen == 0 || p.Time == 0 || p.Threads == 0 {
		return "", fmt.Errorf("invalid argon2 params: %+v", p)
	}
	salt := common.GenerateRandByteArray(p.SaltLen)
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches encoded. The derived key
// is compared in full with subtle.ConstantTimeCompare.
func VerifyPassword(password, encoded string) (bool, error) {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	defer common.WipeByteArray(candidate)

	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

var (
	decoyMu     sync.Mutex
	decoyHashes = map[Params]string{}
)

// VerifyDecoy burns the same work as VerifyPassword against a throwaway
// hash made with p. Callers use it when the account does not exist, passing
// the params real accounts are hashed with, so that lookups of unknown users
// cost as much as lookups of known ones.
func VerifyDecoy(password string, p Params) {
	encoded, err := decoyFor(p)
	if err != nil {
		return
	}
	_, _ = VerifyPassword(password, encoded)
}

func decoyFor(p Params) (string, error) {
	decoyMu.Lock()
	defer decoyMu.Unlock()
	if h, ok := decoyHashes[p]; ok {
		return h, nil
	}
	h, err := HashPasswordWithParams(string(common.GenerateRandByteArray(16)), p)
	if err != nil {
		return "", err
	}
	decoyHashes[p] = h
	return h, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	p.SaltLen = len(salt)
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
