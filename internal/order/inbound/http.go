package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	"github.com/shandysiswandi/otpgate/internal/order/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (*entity.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	ListOrders(ctx context.Context, in usecase.ListOrdersInput) (*usecase.ListOrdersOutput, error)
	CancelOrder(ctx context.Context, orderID int64) (*entity.Order, error)

	RequestConfirmation(ctx context.Context, orderID int64) (*usecase.ConfirmationOutput, error)
	VerifyConfirmation(ctx context.Context, in usecase.VerifyConfirmationInput) (*usecase.VerifyConfirmationOutput, error)
	ResendConfirmation(ctx context.Context, orderID int64) (*usecase.ConfirmationOutput, error)
}

// RegisterHTTPEndpoint mounts the order routes. All of them need an
// authenticated caller.
func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/v1/orders", end.ListOrders)
	r.POST("/api/v1/orders", end.CreateOrder)
	r.GET("/api/v1/orders/:id", end.GetOrder)
	r.POST("/api/v1/orders/:id/cancel", end.CancelOrder)

	// Confirmation
	r.POST("/api/v1/orders/:id/confirmation", end.RequestConfirmation)
	r.POST("/api/v1/orders/:id/confirmation/verify", end.VerifyConfirmation)
	r.POST("/api/v1/orders/:id/confirmation/resend", end.ResendConfirmation)
}
