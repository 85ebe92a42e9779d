package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt hashes passwords with bcrypt. With a pepper, the password is first
// keyed through HMAC-SHA256 so that pepper and password together never exceed
// bcrypt's 72-byte input limit.
type Bcrypt struct {
	cost   int
	pepper []byte
}

// NewBcrypt clamps cost into bcrypt's accepted range.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	b := &Bcrypt{cost: min(max(cost, bcrypt.MinCost), bcrypt.MaxCost)}
	if pepper != "" {
		b.pepper = []byte(pepper)
	}
	return b
}

func (h *Bcrypt) input(plaintext string) []byte {
	if h.pepper == nil {
		return []byte(plaintext)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plaintext))
	return base64.RawStdEncoding.AppendEncode(nil, mac.Sum(nil))
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(h.input(plaintext), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.input(plaintext)) == nil
}
