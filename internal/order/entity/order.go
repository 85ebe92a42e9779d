package entity

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/valueobject"
)

type Status int16

const (
	StatusUnknown   Status = 0
	StatusPending   Status = 1
	StatusConfirmed Status = 2
	StatusCancelled Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Cancellable reports whether an order in s may still be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Order struct {
	ID                int64
	OwnerID           int64
	Status            Status
	TotalAmount       int64
	Currency          string
	Metadata          valueobject.JSONMap
	OTPVerifiedAt     *time.Time
	EstimatedDelivery *time.Time
	CancelledAt       *time.Time
	CreatedAt         time.Time
}

// Confirmation is a freshly confirmed order together with the owner's email.
type Confirmation struct {
	Order      Order
	OwnerEmail string
}

var (
	ErrOrderNotFound  = goerror.NewBusiness("Order not found", goerror.CodeNotFound)
	ErrNotPending     = goerror.NewBusiness("Order is not awaiting confirmation", goerror.CodeConflict)
	ErrNotCancellable = goerror.NewBusiness("Order can no longer be cancelled", goerror.CodeConflict)
	ErrAuthRequired   = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
)
