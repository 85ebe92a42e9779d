package inbound

import (
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type ChallengeResponse struct {
	ChallengeRef string    `json:"challenge_ref"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type RegisterResponse ChallengeResponse

func (RegisterResponse) Message() string {
	return "Registration successful. Please check your email for the verification code."
}

type VerifyRequest struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	ChallengeRef string `json:"challenge_ref"`
}

type RegisterVerifyResponse struct {
	UserID     int64     `json:"user_id,string"`
	Email      string    `json:"email"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (RegisterVerifyResponse) Message() string {
	return "Email verified"
}

type RegisterResendRequest struct {
	Email string `json:"email"`
}

type RegisterResendResponse struct{}

func (RegisterResendResponse) Message() string {
	return "If an account with that email awaits verification, we have sent a new code."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	ChallengeRef string     `json:"challenge_ref,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	*SessionResponse
}

type LoginResendResponse ChallengeResponse

func (LoginResendResponse) Message() string {
	return "A new login code has been sent."
}

type SessionResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"access_token_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_token_expires_at"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"access_token_expires_at"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutResponse struct{}

func (LogoutResponse) Message() string {
	return "Logged out"
}

type ProfileResponse struct {
	ID              int64      `json:"id,string"`
	Email           string     `json:"email"`
	FullName        string     `json:"full_name"`
	Status          string     `json:"status"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
}
