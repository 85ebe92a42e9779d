package hash

import (
	"errors"
	"strings"
)

// ErrUnknownPasswordAlgorithm is returned for an unsupported hash.password.algorithm.
var ErrUnknownPasswordAlgorithm = errors.New("hash: unknown password algorithm")

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Password hashes new passwords with one algorithm and verifies stored
// hashes with whichever algorithm produced them, so switching algorithms
// does not lock existing users out.
type Password struct {
	primary  Hash
	argon2id *Argon2id
	bcrypt   *Bcrypt
}

// NewPassword selects the algorithm new hashes are written with.
func NewPassword(algorithm string, argon *Argon2id, bc *Bcrypt) (*Password, error) {
	p := &Password{argon2id: argon, bcrypt: bc}

	switch strings.ToLower(algorithm) {
	case AlgorithmArgon2id, "":
		p.primary = argon
	case AlgorithmBcrypt:
		p.primary = bc
	default:
		return nil, ErrUnknownPasswordAlgorithm
	}

	return p, nil
}

// Hash hashes plaintext with the configured algorithm.
func (p *Password) Hash(plaintext string) ([]byte, error) {
	return p.primary.Hash(plaintext)
}

// Verify dispatches on the hash prefix.
func (p *Password) Verify(hashed, plaintext string) bool {
	switch {
	case strings.HasPrefix(hashed, argon2idPrefix):
		return p.argon2id.Verify(hashed, plaintext)
	case strings.HasPrefix(hashed, "$2a$"), strings.HasPrefix(hashed, "$2b$"), strings.HasPrefix(hashed, "$2y$"):
		return p.bcrypt.Verify(hashed, plaintext)
	default:
		return false
	}
}
