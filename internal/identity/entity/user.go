package entity

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type User struct {
	ID              int64
	Email           string
	FullName        string
	PasswordHash    string
	Status          UserStatus
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
}

// Activation is the result of moving a user from unverified to active.
type Activation struct {
	UserID     int64
	Email      string
	FullName   string
	VerifiedAt time.Time
}

var (
	ErrInvalidCredential = goerror.NewBusiness("Invalid email or password", goerror.CodeUnauthorized)
	ErrInvalidRefresh    = goerror.NewBusiness("Invalid or expired refresh token", goerror.CodeUnauthorized)
	ErrAuthRequired      = goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	ErrEmailRegistered   = goerror.NewBusiness("Email already registered", goerror.CodeConflict)
	ErrAccountNotFound   = goerror.NewBusiness("Account not found", goerror.CodeNotFound)
)
