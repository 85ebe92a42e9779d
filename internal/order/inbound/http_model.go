package inbound

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
)

type CreateOrderRequest struct {
	TotalAmount int64          `json:"total_amount"`
	Currency    string         `json:"currency"`
	Metadata    map[string]any `json:"metadata"`
}

type OrderResponse struct {
	ID                int64          `json:"id,string"`
	Status            string         `json:"status"`
	TotalAmount       int64          `json:"total_amount"`
	Currency          string         `json:"currency"`
	Metadata          map[string]any `json:"metadata"`
	OTPVerifiedAt     *time.Time     `json:"otp_verified_at,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	CancelledAt       *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

func orderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		Status:            o.Status.String(),
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		Metadata:          o.Metadata,
		OTPVerifiedAt:     o.OTPVerifiedAt,
		EstimatedDelivery: o.EstimatedDelivery,
		CancelledAt:       o.CancelledAt,
		CreatedAt:         o.CreatedAt,
	}
}

type OrdersResponse struct {
	Page   int32           `json:"page"`
	Size   int32           `json:"size"`
	Total  int64           `json:"total"`
	Orders []OrderResponse `json:"orders"`
}

type CancelOrderResponse OrderResponse

func (CancelOrderResponse) Message() string {
	return "Order cancelled"
}

type ConfirmationResponse struct {
	ChallengeRef string    `json:"challenge_ref"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (ConfirmationResponse) Message() string {
	return "Confirmation code sent. Please check your email."
}

type VerifyConfirmationRequest struct {
	Code         string `json:"code"`
	ChallengeRef string `json:"challenge_ref"`
}

type VerifyConfirmationResponse struct {
	OrderID           int64     `json:"order_id,string"`
	Status            string    `json:"status"`
	ConfirmedAt       time.Time `json:"confirmed_at"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}

func (VerifyConfirmationResponse) Message() string {
	return "Order confirmed"
}
