package entity

import "github.com/shandysiswandi/otpgate/internal/pkg/goerror"

var (
	ErrRateLimited        = goerror.NewBusiness("Please wait before requesting a new code", goerror.CodeTooManyRequest)
	ErrDeliveryFailed     = goerror.NewBusiness("Failed to deliver verification code", goerror.CodeUnavailable)
	ErrChallengeNotFound  = goerror.NewBusiness("No active verification code", goerror.CodeNotFound)
	ErrChallengeExpired   = goerror.NewBusiness("Verification code has expired", goerror.CodeGone)
	ErrAttemptsExhausted  = goerror.NewBusiness("Too many failed attempts, request a new code", goerror.CodeForbidden)
	ErrInvalidCode        = goerror.NewBusiness("Invalid verification code", goerror.CodeUnauthorized)
	ErrInvalidPurpose     = goerror.NewBusiness("Unsupported verification purpose", goerror.CodeInvalidInput)
	ErrTransitionConflict = goerror.NewBusiness("Verification already applied", goerror.CodeConflict)
)
