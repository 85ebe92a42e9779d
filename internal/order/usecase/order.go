package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

type CreateOrderInput struct {
	TotalAmount int64  `validate:"gte=0"`
	Currency    string `validate:"required,iso4217"`
	Metadata    map[string]any
}

func (s *Usecase) CreateOrder(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	ctx, span := s.startSpan(ctx, "CreateOrder")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, entity.ErrAuthRequired
	}

	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	o := entity.Order{
		ID:          s.uid.Generate(),
		OwnerID:     clm.UserID,
		Status:      entity.StatusPending,
		TotalAmount: in.TotalAmount,
		Currency:    in.Currency,
		Metadata:    valueobject.JSONMap(in.Metadata),
		CreatedAt:   s.clock.Now(),
	}
	if o.Metadata == nil {
		o.Metadata = valueobject.JSONMap{}
	}

	if err := s.repoDB.CreateOrder(ctx, o); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "order owner no longer exists", "owner_id", clm.UserID)
			return nil, entity.ErrAuthRequired
		}
		slog.ErrorContext(ctx, "failed to repo create order", "owner_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "order created", "order_id", o.ID, "owner_id", o.OwnerID)

	return &o, nil
}

func (s *Usecase) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	ctx, span := s.startSpan(ctx, "GetOrder")
	defer span.End()

	_, o, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return o, nil
}

type ListOrdersInput struct {
	Page int32
	Size int32
}

type ListOrdersOutput struct {
	Page   int32
	Size   int32
	Total  int64
	Orders []entity.Order
}

// ListOrders pages through the caller's own orders, newest first. Size falls
// back to 10 when missing or above 100.
func (s *Usecase) ListOrders(ctx context.Context, in ListOrdersInput) (*ListOrdersOutput, error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, entity.ErrAuthRequired
	}

	if in.Size <= 0 || in.Size > 100 {
		in.Size = 10
	}
	page := max(in.Page, 1)

	orders, total, err := s.repoDB.ListOrders(ctx, clm.UserID, in.Size, (page-1)*in.Size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list orders", "owner_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOrdersOutput{
		Page:   page,
		Size:   in.Size,
		Total:  total,
		Orders: orders,
	}, nil
}

// CancelOrder cancels a pending or confirmed order of the caller.
func (s *Usecase) CancelOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	ctx, span := s.startSpan(ctx, "CancelOrder")
	defer span.End()

	clm, o, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, entity.ErrNotCancellable
	}

	cancelled, err := s.repoDB.CancelOrder(ctx, orderID, clm.UserID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		// cancelled concurrently
		return nil, entity.ErrNotCancellable
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo cancel order", "order_id", orderID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "order cancelled", "order_id", orderID, "owner_id", clm.UserID)

	return cancelled, nil
}
