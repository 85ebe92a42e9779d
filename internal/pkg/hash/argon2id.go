package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Argon2idConfig tunes the Argon2id cost. Zero fields take the defaults.
type Argon2idConfig struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	// MaxConcurrent caps simultaneous hash computations, since each one holds
	// MemoryKiB of RAM. Zero disables the cap.
	MaxConcurrent int
	Pepper        string
}

// Argon2id implements Hash with PHC-encoded Argon2id digests.
type Argon2id struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
	pepper      string
	sem         chan struct{}
}

// NewArgon2id returns an Argon2id hasher.
func NewArgon2id(cfg Argon2idConfig) *Argon2id {
	a := &Argon2id{
		memory:      32 * 1024,
		iterations:  3,
		parallelism: 2,
		saltLength:  16,
		keyLength:   32,
		pepper:      cfg.Pepper,
	}
	if cfg.MemoryKiB > 0 {
		a.memory = cfg.MemoryKiB
	}
	if cfg.Iterations > 0 {
		a.iterations = cfg.Iterations
	}
	if cfg.Parallelism > 0 {
		a.parallelism = cfg.Parallelism
	}
	if cfg.MaxConcurrent > 0 {
		a.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return a
}

func (a *Argon2id) key(plaintext string, salt []byte, t, m uint32, p uint8, n uint32) []byte {
	if a.sem != nil {
		a.sem <- struct{}{}
		defer func() { <-a.sem }()
	}
	return argon2.IDKey([]byte(plaintext+a.pepper), salt, t, m, p, n)
}

// Hash returns $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (a *Argon2id) Hash(plaintext string) ([]byte, error) {
	salt := make([]byte, a.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	key := a.key(plaintext, salt, a.iterations, a.memory, a.parallelism, a.keyLength)

	return fmt.Appendf(nil, "%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		a.memory,
		a.iterations,
		a.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in hashed, so digests
// made under older cost settings keep verifying.
func (a *Argon2id) Verify(hashed, plaintext string) bool {
	if plaintext == "" || !strings.HasPrefix(hashed, argon2idPrefix) {
		return false
	}

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) == 0 {
		return false
	}

	got := a.key(plaintext, salt, iterations, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}
