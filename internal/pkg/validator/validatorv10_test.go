package validator

import (
	"errors"
	"testing"
)

type verifyInput struct {
	Email    string `validate:"required,email"`
	Code     string `validate:"required,otpcode"`
	FullName string `validate:"omitempty,alphaspace"`
	Password string `validate:"omitempty,password"`
	Currency string `validate:"omitempty,iso4217"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name    string
		in      verifyInput
		wantKey string
		wantMsg string
	}{
		{name: "valid", in: verifyInput{Email: "a@b.co", Code: "123456"}},
		{name: "short code", in: verifyInput{Email: "a@b.co", Code: "12345"}, wantKey: "code", wantMsg: "Code must be exactly 6 digits"},
		{name: "letters in code", in: verifyInput{Email: "a@b.co", Code: "12a456"}, wantKey: "code", wantMsg: "Code must be exactly 6 digits"},
		{name: "bad email", in: verifyInput{Email: "nope", Code: "123456"}, wantKey: "email"},
		{name: "short password", in: verifyInput{Email: "a@b.co", Code: "123456", Password: "short"}, wantKey: "password", wantMsg: "Password must be 8-72 characters"},
		{name: "full name", in: verifyInput{Email: "a@b.co", Code: "123456", FullName: "J4ne"}, wantKey: "full_name"},
		{name: "known currency", in: verifyInput{Email: "a@b.co", Code: "123456", Currency: "IDR"}},
		{name: "unknown currency", in: verifyInput{Email: "a@b.co", Code: "123456", Currency: "ABC"}, wantKey: "currency", wantMsg: "Currency must be an ISO 4217 currency code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantKey == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected V10ValidationError, got %T (%v)", err, err)
			}
			msg, ok := verr.Values()[tt.wantKey]
			if !ok {
				t.Fatalf("missing key %q in %v", tt.wantKey, verr)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
