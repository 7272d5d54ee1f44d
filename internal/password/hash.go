// Package password implements Vendaria's credential hashing scheme: a
// SHA-256 digest of the plaintext concatenated with a fixed application-wide
// salt, rendered as lowercase hex. This matches what existing user rows were
// written with, so it cannot be changed without a migration.
//
// The scheme is deliberately weak: no per-user salt, no adaptive work factor.
// Anyone deploying this for real traffic should migrate stored digests to a
// memory-hard hash such as argon2id.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// salt is the fixed application-wide salt appended to every password before
// hashing. Changing it invalidates every stored digest.
const salt = "e2e-commerce-salt"

// Hash returns the lowercase hex SHA-256 digest of plain+salt.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain + salt))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether plain hashes to digest. The comparison is
// constant-time to avoid leaking digest prefixes.
func Verify(plain, digest string) bool {
	computed := Hash(plain)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
