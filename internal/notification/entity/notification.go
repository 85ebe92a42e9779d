package entity

import "time"

type Welcome struct {
	Email       string
	FullName    string
	ActivatedAt time.Time
}

type OrderConfirmed struct {
	Email             string
	OrderID           int64
	TotalAmount       int64
	Currency          string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
}
