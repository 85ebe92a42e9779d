package entity

import "time"

// Account is the result of a registration transition.
type Account struct {
	UserID     int64
	Email      string
	VerifiedAt time.Time
}

// Session is the result of a login transition.
type Session struct {
	AccessToken      string
	RefreshToken     string
	ExpiresAt        time.Time
	RefreshExpiresAt time.Time
}

// Order is the result of an order confirmation transition.
type Order struct {
	OrderID           int64
	Status            string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
}

// TransitionResult carries exactly one of Account, Session or Order,
// matching Purpose.
type TransitionResult struct {
	Purpose Purpose
	Account *Account
	Session *Session
	Order   *Order
}
