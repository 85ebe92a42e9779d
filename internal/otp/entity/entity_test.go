package entity

import (
	"errors"
	"testing"
	"time"
)

func TestParsePurpose(t *testing.T) {
	tests := []struct {
		raw     string
		want    Purpose
		wantErr error
	}{
		{raw: "registration", want: PurposeRegistration},
		{raw: " LOGIN ", want: PurposeLogin},
		{raw: "order_confirmation", want: PurposeOrderConfirmation},
		{raw: "password_reset", wantErr: ErrInvalidPurpose},
		{raw: "", wantErr: ErrInvalidPurpose},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePurpose(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePurpose() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParsePurpose() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPurposeTTL(t *testing.T) {
	if got := PurposeRegistration.TTL(); got != 10*time.Minute {
		t.Fatalf("registration TTL = %v", got)
	}
	if got := PurposeLogin.TTL(); got != 10*time.Minute {
		t.Fatalf("login TTL = %v", got)
	}
	if got := PurposeOrderConfirmation.TTL(); got != 15*time.Minute {
		t.Fatalf("order confirmation TTL = %v", got)
	}
	if got := Purpose("x").TTL(); got != 0 {
		t.Fatalf("unknown TTL = %v", got)
	}
}

func TestChallengeExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c := Challenge{ExpiresAt: now}

	if c.Expired(now) {
		t.Fatal("challenge should still be valid at its expiry instant")
	}
	if !c.Expired(now.Add(time.Nanosecond)) {
		t.Fatal("challenge should be expired after its expiry instant")
	}
}
