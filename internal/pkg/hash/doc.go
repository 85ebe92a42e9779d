// Package hash provides one-way hashing for secrets: Argon2id or bcrypt for
// passwords and keyed HMAC-SHA256 for short lived values such as verification
// codes and refresh tokens, where the digest must be recomputable for lookups.
package hash

// Hash hashes a plaintext and verifies a plaintext against a stored hash.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}
