package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccountActivated(ctx context.Context, eventID string, a entity.Activation) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishAccountActivated")
	defer span.End()

	body, err := json.Marshal(event.AccountActivatedMessage{
		EventID:     eventID,
		UserID:      a.UserID,
		Email:       a.Email,
		FullName:    a.FullName,
		ActivatedAt: a.VerifiedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.AccountActivatedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(eventID),
		Headers: instrument.MessageHeaders(ctx),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
