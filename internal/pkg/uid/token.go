package uid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"

	"go.uber.org/atomic"
)

// Token generates opaque 64-char hex tokens. The first 8 bytes hold the
// millisecond timestamp and a per-process sequence, the remaining 24 bytes
// are random.
type Token struct {
	seq atomic.Uint32
	now func() time.Time
}

// NewToken returns a token generator.
func NewToken() *Token {
	return &Token{now: time.Now}
}

// Generate returns a new token.
func (t *Token) Generate() string {
	var raw [32]byte

	ms := uint64(t.now().UnixMilli()) & (1<<48 - 1)
	binary.BigEndian.PutUint64(raw[:8], ms<<16|uint64(uint16(t.seq.Inc())))
	_, _ = rand.Read(raw[8:]) // crypto/rand.Read does not fail since Go 1.24

	return hex.EncodeToString(raw[:])
}
