// Package strcase converts Go identifiers to the snake_case names clients see
// in validation errors.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier to snake_case, keeping initialisms in
// one word: OwnerID -> owner_id, HTTPStatus -> http_status, Base64URL -> base64_url.
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordStartsAt(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordStartsAt reports whether the upper-case rune at i opens a new word:
// after a lower-case letter or digit, or as the last capital of an initialism
// that is followed by a lower-case letter.
func wordStartsAt(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
