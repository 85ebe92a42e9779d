package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterOutput, error)
	RegisterVerify(ctx context.Context, in usecase.RegisterVerifyInput) (*usecase.RegisterVerifyOutput, error)
	RegisterResend(ctx context.Context, in usecase.RegisterResendInput) error

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	LoginVerify(ctx context.Context, in usecase.LoginVerifyInput) (*otpentity.Session, error)
	LoginResend(ctx context.Context, in usecase.LoginResendInput) (*usecase.LoginResendOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)

	Logout(ctx context.Context, in usecase.LogoutInput) error
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Registration
	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/register/verify", end.RegisterVerify)
	r.POST("/api/v1/identity/register/resend", end.RegisterResend)

	// Session
	r.POST("/api/v1/identity/login", end.Login)
	r.POST("/api/v1/identity/login/verify", end.LoginVerify)
	r.POST("/api/v1/identity/login/resend", end.LoginResend)
	r.POST("/api/v1/identity/refresh", end.RefreshToken)
	r.POST("/api/v1/identity/logout", end.Logout) // need authenticated

	// Profile (need authenticated)
	r.GET("/api/v1/identity/profile", end.Profile)
}
