package event

import "time"

const OrderConfirmedDestination string = "order_confirmed"
const OrderConfirmedConsumerNotification string = "order_confirmed_notification"

type OrderConfirmedMessage struct {
	EventID           string    `json:"event_id"`
	OrderID           int64     `json:"order_id"`
	OwnerID           int64     `json:"owner_id"`
	Email             string    `json:"email"`
	TotalAmount       int64     `json:"total_amount"`
	Currency          string    `json:"currency"`
	ConfirmedAt       time.Time `json:"confirmed_at"`
	EstimatedDelivery time.Time `json:"estimated_delivery"`
}
