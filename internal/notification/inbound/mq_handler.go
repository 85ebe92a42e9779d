package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/notification/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers map[string]string) context.Context {
	return instrument.FromMessageHeaders(ctx, headers, h.uuid.Generate)
}

func (h *MQHandler) AccountActivatedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "AccountActivatedNotification")
	defer span.End()

	body := msg.Body()

	var payload event.AccountActivatedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of account activated", "msg_body", string(body), "error", err)
		return nil
	}
	slog.InfoContext(ctx, "consume: account activated", "event_id", payload.EventID, "user_id", payload.UserID)

	return h.uc.ConsumeAccountActivated(ctx, usecase.ConsumeAccountActivatedInput{
		EventID:     payload.EventID,
		UserID:      payload.UserID,
		Email:       payload.Email,
		FullName:    payload.FullName,
		ActivatedAt: payload.ActivatedAt,
	})
}

func (h *MQHandler) OrderConfirmedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OrderConfirmedNotification")
	defer span.End()

	body := msg.Body()

	var payload event.OrderConfirmedMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of order confirmed", "msg_body", string(body), "error", err)
		return nil
	}
	slog.InfoContext(ctx, "consume: order confirmed", "event_id", payload.EventID, "order_id", payload.OrderID)

	return h.uc.ConsumeOrderConfirmed(ctx, usecase.ConsumeOrderConfirmedInput{
		EventID:           payload.EventID,
		OrderID:           payload.OrderID,
		Email:             payload.Email,
		TotalAmount:       payload.TotalAmount,
		Currency:          payload.Currency,
		ConfirmedAt:       payload.ConfirmedAt,
		EstimatedDelivery: payload.EstimatedDelivery,
	})
}
