package email

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	"math"
	texttemplate "text/template"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed templates
var templates embed.FS

var intros = map[entity.Purpose]string{
	entity.PurposeRegistration:      "Use the code below to verify your email address and activate your account.",
	entity.PurposeLogin:             "Use the code below to finish signing in.",
	entity.PurposeOrderConfirmation: "Use the code below to confirm your order. The order stays pending until it is confirmed.",
}

// Mail delivers verification codes by email.
type Mail struct {
	client mail.Mail
	cfg    config.Config
	ins    instrument.Instrumentation
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func New(client mail.Mail, cfg config.Config, ins instrument.Instrumentation) (*Mail, error) {
	html, err := htmltemplate.ParseFS(templates, "templates/code.html")
	if err != nil {
		return nil, err
	}
	text, err := texttemplate.ParseFS(templates, "templates/code.txt")
	if err != nil {
		return nil, err
	}

	return &Mail{client: client, cfg: cfg, ins: ins, html: html, text: text}, nil
}

type codeData struct {
	Subject       string
	Intro         string
	Code          string
	ExpiryMinutes int
	CompanyName   string
	Year          int
}

func (m *Mail) Send(ctx context.Context, d entity.Delivery) error {
	ctx, span := m.ins.Tracer("otp.outbound.email").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("purpose", d.Purpose.String()))

	msg, err := m.render(d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Mail) render(d entity.Delivery) (mail.Message, error) {
	data := codeData{
		Subject:       d.Purpose.Subject(),
		Intro:         intros[d.Purpose],
		Code:          d.Code,
		ExpiryMinutes: int(math.Round(d.Purpose.TTL().Minutes())),
		CompanyName:   m.cfg.GetString("app.name"),
		Year:          d.ExpiresAt.Year(),
	}

	var html, text bytes.Buffer
	if err := m.html.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}
	if err := m.text.Execute(&text, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{d.Destination},
		Subject:  data.Subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}
