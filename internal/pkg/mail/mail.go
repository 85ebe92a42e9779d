package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DriverSMTP selects the SMTP sender.
	DriverSMTP = "smtp"
	// DriverSES selects the Amazon SES sender.
	DriverSES = "ses"
)

var (
	// ErrUnknownDriver indicates an unsupported mail driver.
	ErrUnknownDriver = errors.New("mail: unknown driver")
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when neither Message.From nor the default sender is set.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message is an email payload.
type Message struct {
	// From overrides the configured default sender.
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail sends messages. Send must return once ctx is done.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// FactoryOptions groups configuration for mail drivers.
type FactoryOptions struct {
	SMTP SMTPConfig
	SES  SESConfig
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSMTP:
		return NewSMTP(opts.SMTP)
	case DriverSES:
		return NewSES(ctx, opts.SES)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func senderOf(msg Message, fallback string) (string, error) {
	if msg.From != "" {
		return msg.From, nil
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoSender
}
