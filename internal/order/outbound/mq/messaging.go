package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishOrderConfirmed(ctx context.Context, eventID string, c entity.Confirmation) error {
	ctx, span := m.ins.Tracer("order.outbound.mq").Start(ctx, "PublishOrderConfirmed")
	defer span.End()

	msg := event.OrderConfirmedMessage{
		EventID:     eventID,
		OrderID:     c.Order.ID,
		OwnerID:     c.Order.OwnerID,
		Email:       c.OwnerEmail,
		TotalAmount: c.Order.TotalAmount,
		Currency:    c.Order.Currency,
	}
	if c.Order.OTPVerifiedAt != nil {
		msg.ConfirmedAt = *c.Order.OTPVerifiedAt
	}
	if c.Order.EstimatedDelivery != nil {
		msg.EstimatedDelivery = *c.Order.EstimatedDelivery
	}

	body, err := json.Marshal(msg)
	if err != nil {
		fail(span, err)
		return err
	}

	if err := m.client.Publish(ctx, event.OrderConfirmedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(eventID),
		Headers: instrument.MessageHeaders(ctx),
	}); err != nil {
		fail(span, err)
		return err
	}

	return nil
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
