package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type captureMail struct {
	msgs []mail.Message
	err  error
}

func (c *captureMail) Send(_ context.Context, msg mail.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureMail) Close() error { return nil }

func newTestMail(t *testing.T, client mail.Mail) *Mail {
	t.Helper()
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: OTPGate\n"))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	m, err := New(client, cfg, instrument.NewNoop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func TestMailSendPerPurpose(t *testing.T) {
	tests := []struct {
		purpose entity.Purpose
		subject string
		minutes string
	}{
		{entity.PurposeRegistration, "Verify Your Email", "10 minutes"},
		{entity.PurposeLogin, "Your Login Verification Code", "10 minutes"},
		{entity.PurposeOrderConfirmation, "Order Confirmation Required", "15 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.purpose.String(), func(t *testing.T) {
			// Arrange
			client := &captureMail{}
			m := newTestMail(t, client)

			// Act
			err := m.Send(context.Background(), entity.Delivery{
				Destination: "user@example.com",
				Purpose:     tt.purpose,
				Code:        "482913",
				ExpiresAt:   time.Date(2026, 3, 1, 9, 10, 0, 0, time.UTC),
			})

			// Assert
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if len(client.msgs) != 1 {
				t.Fatalf("sent %d messages", len(client.msgs))
			}
			msg := client.msgs[0]
			if msg.Subject != tt.subject || msg.To[0] != "user@example.com" {
				t.Fatalf("unexpected message %+v", msg)
			}
			for _, body := range []string{msg.HTMLBody, msg.TextBody} {
				if !strings.Contains(body, "482913") || !strings.Contains(body, tt.minutes) {
					t.Fatalf("body misses code or expiry:\n%s", body)
				}
			}
		})
	}
}

func TestMailSendError(t *testing.T) {
	m := newTestMail(t, &captureMail{err: errors.New("relay refused")})

	err := m.Send(context.Background(), entity.Delivery{Destination: "user@example.com", Purpose: entity.PurposeLogin, Code: "111111"})

	if err == nil {
		t.Fatal("Send() should return the client error")
	}
}
