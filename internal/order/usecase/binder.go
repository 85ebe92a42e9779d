package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// ConfirmOrder moves a pending order of ownerID to confirmed once the
// confirmation code is proved. An order that is no longer pending is a
// conflict.
func (s *Usecase) ConfirmOrder(ctx context.Context, ownerID, orderID int64) (*otpentity.Order, error) {
	ctx, span := s.startSpan(ctx, "ConfirmOrder")
	defer span.End()

	now := s.clock.Now()
	conf, err := s.repoDB.ConfirmOrder(ctx, orderID, ownerID, now, now.Add(s.deliveryEstimate()))
	if errors.Is(err, goerror.ErrNotFound) {
		if _, gerr := s.repoDB.GetOrder(ctx, orderID, ownerID); errors.Is(gerr, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "confirmation for unknown order", "order_id", orderID, "owner_id", ownerID)
			return nil, entity.ErrOrderNotFound
		}

		slog.WarnContext(ctx, "order no longer pending", "order_id", orderID)
		return nil, goerror.ErrConflict
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo confirm order", "order_id", orderID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "order confirmed", "order_id", orderID, "owner_id", ownerID)
	s.publishConfirmed(ctx, *conf)

	res := &otpentity.Order{
		OrderID:     conf.Order.ID,
		Status:      conf.Order.Status.String(),
		ConfirmedAt: now,
	}
	if conf.Order.EstimatedDelivery != nil {
		res.EstimatedDelivery = *conf.Order.EstimatedDelivery
	}
	return res, nil
}
