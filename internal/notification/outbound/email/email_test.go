package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
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

func TestSendWelcome(t *testing.T) {
	// Arrange
	client := &captureMail{}
	m := newTestMail(t, client)

	// Act
	err := m.SendWelcome(context.Background(), entity.Welcome{
		Email:       "new@example.com",
		FullName:    "Ada <Lovelace>",
		ActivatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})

	// Assert
	if err != nil {
		t.Fatalf("SendWelcome() error = %v", err)
	}
	msg := client.msgs[0]
	if msg.To[0] != "new@example.com" || msg.Subject != "Welcome aboard" {
		t.Fatalf("message = %+v", msg)
	}
	if !strings.Contains(msg.HTMLBody, "Ada &lt;Lovelace&gt;") {
		t.Fatalf("HTMLBody not escaped: %s", msg.HTMLBody)
	}
	if !strings.Contains(msg.TextBody, "Ada <Lovelace>") || !strings.Contains(msg.TextBody, "2026 OTPGate") {
		t.Fatalf("TextBody = %s", msg.TextBody)
	}
}

func TestSendOrderConfirmed(t *testing.T) {
	// Arrange
	client := &captureMail{}
	m := newTestMail(t, client)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Act
	err := m.SendOrderConfirmed(context.Background(), entity.OrderConfirmed{
		Email:             "buyer@example.com",
		OrderID:           100,
		TotalAmount:       125000,
		Currency:          "IDR",
		ConfirmedAt:       at,
		EstimatedDelivery: at.AddDate(0, 0, 3),
	})

	// Assert
	if err != nil {
		t.Fatalf("SendOrderConfirmed() error = %v", err)
	}
	msg := client.msgs[0]
	if msg.Subject != "Your order is confirmed" {
		t.Fatalf("Subject = %q", msg.Subject)
	}
	for _, want := range []string{"Order #100", "IDR 125000", "Wednesday, 04 Mar 2026"} {
		if !strings.Contains(msg.HTMLBody, want) || !strings.Contains(msg.TextBody, want) {
			t.Fatalf("bodies missing %q", want)
		}
	}
}

func TestSendPropagatesClientError(t *testing.T) {
	// Arrange
	want := errors.New("smtp down")
	m := newTestMail(t, &captureMail{err: want})

	// Act
	err := m.SendWelcome(context.Background(), entity.Welcome{Email: "a@example.com", ActivatedAt: time.Now()})

	// Assert
	if !errors.Is(err, want) {
		t.Fatalf("error = %v, want %v", err, want)
	}
}
