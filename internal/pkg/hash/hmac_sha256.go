package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACSHA256 produces deterministic hex digests for verification codes and
// lookup keys. Hash always uses the current secret. Verify also accepts
// digests made with a previous secret, so codes issued before a rotation stay
// valid until they expire. Lookup keys are not retried against old secrets.
type HMACSHA256 struct {
	keys [][]byte
}

// NewHMACSHA256 creates a hasher keyed by secret. previous lists retired
// secrets still accepted by Verify; empty entries are ignored.
func NewHMACSHA256(secret string, previous ...string) *HMACSHA256 {
	keys := make([][]byte, 0, 1+len(previous))
	keys = append(keys, []byte(secret))
	for _, p := range previous {
		if p != "" && p != secret {
			keys = append(keys, []byte(p))
		}
	}
	return &HMACSHA256{keys: keys}
}

// Hash returns the hex-encoded HMAC-SHA256 of str under the current secret.
func (s *HMACSHA256) Hash(str string) ([]byte, error) {
	return sum(s.keys[0], str), nil
}

// Verify reports whether hashed is the digest of str under any known secret.
func (s *HMACSHA256) Verify(hashed, str string) bool {
	match := false
	for _, key := range s.keys {
		// every key is tried so timing does not reveal which one matched
		if hmac.Equal([]byte(hashed), sum(key, str)) {
			match = true
		}
	}
	return match
}

func sum(key []byte, str string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(str))
	return hex.AppendEncode(make([]byte, 0, hex.EncodedLen(sha256.Size)), mac.Sum(nil))
}
