package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/notification/entity"
)

type ConsumeAccountActivatedInput struct {
	EventID     string `validate:"required"`
	UserID      int64  `validate:"gt=0"`
	Email       string `validate:"required,email"`
	FullName    string
	ActivatedAt time.Time
}

type ConsumeOrderConfirmedInput struct {
	EventID           string `validate:"required"`
	OrderID           int64  `validate:"gt=0"`
	Email             string `validate:"required,email"`
	TotalAmount       int64
	Currency          string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
}

// ConsumeAccountActivated sends the welcome email. Invalid payloads are
// dropped since a redelivery would not fix them.
func (s *Usecase) ConsumeAccountActivated(ctx context.Context, in ConsumeAccountActivatedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeAccountActivated")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "event_id", in.EventID, "error", err)
		return nil
	}

	return s.deliverOnce(ctx, entity.KindWelcome, in.EventID, func(ctx context.Context) error {
		return s.repoMail.SendWelcome(ctx, entity.Welcome{
			Email:       in.Email,
			FullName:    in.FullName,
			ActivatedAt: in.ActivatedAt,
		})
	})
}

func (s *Usecase) ConsumeOrderConfirmed(ctx context.Context, in ConsumeOrderConfirmedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOrderConfirmed")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "event_id", in.EventID, "error", err)
		return nil
	}

	return s.deliverOnce(ctx, entity.KindOrderConfirmed, in.EventID, func(ctx context.Context) error {
		return s.repoMail.SendOrderConfirmed(ctx, entity.OrderConfirmed{
			Email:             in.Email,
			OrderID:           in.OrderID,
			TotalAmount:       in.TotalAmount,
			Currency:          in.Currency,
			ConfirmedAt:       in.ConfirmedAt,
			EstimatedDelivery: in.EstimatedDelivery,
		})
	})
}
