package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed templates
var templates embed.FS

type Mail struct {
	client mail.Mail
	cfg    config.Config
	ins    instrument.Instrumentation
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func New(client mail.Mail, cfg config.Config, ins instrument.Instrumentation) (*Mail, error) {
	html, err := htmltemplate.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	text, err := texttemplate.ParseFS(templates, "templates/*.txt")
	if err != nil {
		return nil, err
	}

	return &Mail{client: client, cfg: cfg, ins: ins, html: html, text: text}, nil
}

type welcomeData struct {
	FullName    string
	ActivatedAt time.Time
	CompanyName string
	Year        int
}

type orderConfirmedData struct {
	OrderID           int64
	Amount            string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
	CompanyName       string
	Year              int
}

func (m *Mail) SendWelcome(ctx context.Context, w entity.Welcome) error {
	return m.send(ctx, entity.KindWelcome, w.Email, welcomeData{
		FullName:    w.FullName,
		ActivatedAt: w.ActivatedAt,
		CompanyName: m.cfg.GetString("app.name"),
		Year:        w.ActivatedAt.Year(),
	})
}

func (m *Mail) SendOrderConfirmed(ctx context.Context, o entity.OrderConfirmed) error {
	return m.send(ctx, entity.KindOrderConfirmed, o.Email, orderConfirmedData{
		OrderID:           o.OrderID,
		Amount:            fmt.Sprintf("%s %d", o.Currency, o.TotalAmount),
		ConfirmedAt:       o.ConfirmedAt,
		EstimatedDelivery: o.EstimatedDelivery,
		CompanyName:       m.cfg.GetString("app.name"),
		Year:              o.ConfirmedAt.Year(),
	})
}

func (m *Mail) send(ctx context.Context, kind entity.Kind, to string, data any) error {
	ctx, span := m.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(attribute.String("kind", kind.String()))

	msg, err := m.render(kind, to, data)
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

func (m *Mail) render(kind entity.Kind, to string, data any) (mail.Message, error) {
	var html, text bytes.Buffer
	if err := m.html.ExecuteTemplate(&html, kind.String()+".html", data); err != nil {
		return mail.Message{}, err
	}
	if err := m.text.ExecuteTemplate(&text, kind.String()+".txt", data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{
		To:       []string{to},
		Subject:  kind.Subject(),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}
