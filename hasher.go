package miniauth

import (
	"crypto/sha512"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// MinPBKDF2Iterations is the floor for the password key-derivation cost.
const MinPBKDF2Iterations = 100000

// passwordHashLen is the derived key length in bytes.
const passwordHashLen = 64

// Hasher produces the two digests the auth flows depend on: a fast keyed
// digest for OTP codes and OAuth comparisons, and a deliberately slow
// key-derivation hash for passwords.
//
// The salt is injected at construction rather than read from ambient state so
// tests can run against deterministic fixtures. Both digests are pure
// functions of (salt, input): identical inputs always yield identical
// outputs, which is what password verification-by-reproduction relies on.
type Hasher struct {
	salt       []byte
	iterations int
}

// NewHasher creates a Hasher keyed with the given server salt. Iteration
// counts below MinPBKDF2Iterations are raised to the floor.
func NewHasher(salt string, iterations int) *Hasher {
	if iterations < MinPBKDF2Iterations {
		iterations = MinPBKDF2Iterations
	}
	return &Hasher{salt: []byte(salt), iterations: iterations}
}

// Hash returns the hex-encoded SHA-512 digest of salt+input.
func (h *Hasher) Hash(input string) string {
	d := sha512.New()
	d.Write(h.salt)
	d.Write([]byte(input))
	return hex.EncodeToString(d.Sum(nil))
}

// PasswordHash derives a 64-byte PBKDF2-SHA512 key from the password, keyed
// with the server salt, and returns it hex-encoded. This is intentionally
// much slower than Hash; it is the only digest used on the password path.
func (h *Hasher) PasswordHash(password string) string {
	key := pbkdf2.Key([]byte(password), h.salt, h.iterations, passwordHashLen, sha512.New)
	return hex.EncodeToString(key)
}
