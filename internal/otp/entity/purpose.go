package entity

import (
	"strings"
	"time"
)

// Purpose is the business transition a challenge unlocks.
type Purpose string

const (
	PurposeRegistration      Purpose = "registration"
	PurposeLogin             Purpose = "login"
	PurposeOrderConfirmation Purpose = "order_confirmation"
)

// Purposes lists every known purpose in a stable order.
var Purposes = []Purpose{PurposeRegistration, PurposeLogin, PurposeOrderConfirmation}

// ParsePurpose maps a wire name to a Purpose.
func ParsePurpose(raw string) (Purpose, error) {
	p := Purpose(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", ErrInvalidPurpose
	}
	return p, nil
}

func (p Purpose) String() string {
	return string(p)
}

func (p Purpose) Valid() bool {
	switch p {
	case PurposeRegistration, PurposeLogin, PurposeOrderConfirmation:
		return true
	default:
		return false
	}
}

// TTL is how long a challenge of this purpose accepts a code.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeOrderConfirmation:
		return 15 * time.Minute
	case PurposeRegistration, PurposeLogin:
		return 10 * time.Minute
	default:
		return 0
	}
}

// Subject is the email subject line used when delivering the code.
func (p Purpose) Subject() string {
	switch p {
	case PurposeRegistration:
		return "Verify Your Email"
	case PurposeLogin:
		return "Your Login Verification Code"
	case PurposeOrderConfirmation:
		return "Order Confirmation Required"
	default:
		return ""
	}
}

// RequiresSubject reports whether challenges carry a subject id (the order).
func (p Purpose) RequiresSubject() bool {
	return p == PurposeOrderConfirmation
}
