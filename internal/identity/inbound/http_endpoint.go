package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for registration, session and profile workflows.
type HTTPEndpoint struct {
	uc uc
}

func sessionResponse(s *otpentity.Session) *SessionResponse {
	return &SessionResponse{
		AccessToken:      s.AccessToken,
		RefreshToken:     s.RefreshToken,
		ExpiresAt:        s.ExpiresAt,
		RefreshExpiresAt: s.RefreshExpiresAt,
	}
}

// Register creates an unverified account and mails a verification code.
// @Summary Register user
// @Description Creates an unverified account and sends a 6-digit code to the email.
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration payload"
// @Success 200 {object} router.successResponse{data=RegisterResponse} "Challenge issued"
// @Failure 409 {object} router.errorResponse "Email already registered"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Failure 503 {object} router.errorResponse "Code delivery failed"
// @Router /api/v1/identity/register [post]
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, err
	}

	return RegisterResponse{ChallengeRef: resp.ChallengeRef, ExpiresAt: resp.ExpiresAt}, nil
}

// RegisterVerify proves the registration code and activates the account.
// @Summary Verify registration
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=RegisterVerifyResponse} "Account activated"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 403 {object} router.errorResponse "Attempts exhausted"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 409 {object} router.errorResponse "Already verified"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Router /api/v1/identity/register/verify [post]
func (h *HTTPEndpoint) RegisterVerify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegisterVerify(r.Context(), usecase.RegisterVerifyInput{
		Email:        req.Email,
		Code:         req.Code,
		ChallengeRef: req.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}

	return RegisterVerifyResponse{
		UserID:     resp.UserID,
		Email:      resp.Email,
		VerifiedAt: resp.VerifiedAt,
	}, nil
}

// RegisterResend mails a new registration code.
// @Summary Resend registration code
// @Tags Identity, Registration
// @Accept json
// @Produce json
// @Param request body RegisterResendRequest true "Resend payload"
// @Success 200 {object} router.successResponse{data=RegisterResendResponse} "Generic acknowledgement"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Router /api/v1/identity/register/resend [post]
func (h *HTTPEndpoint) RegisterResend(r *router.Request) (any, error) {
	var req RegisterResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RegisterResend(r.Context(), usecase.RegisterResendInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return RegisterResendResponse{}, nil
}

// Login checks the password and mails a login code.
// @Summary Authenticate user
// @Description Validates credentials and issues a login challenge. Emails on the bypass list receive tokens directly.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResponse} "Challenge or session"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 403 {object} router.errorResponse "Account not allowed"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Router /api/v1/identity/login [post]
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	if resp.Session != nil {
		return LoginResponse{SessionResponse: sessionResponse(resp.Session)}, nil
	}

	return LoginResponse{ChallengeRef: resp.ChallengeRef, ExpiresAt: &resp.ExpiresAt}, nil
}

// LoginVerify proves the login code and opens a session.
// @Summary Verify login
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verification payload"
// @Success 200 {object} router.successResponse{data=SessionResponse} "Session issued"
// @Failure 401 {object} router.errorResponse "Invalid code"
// @Failure 404 {object} router.errorResponse "No active code"
// @Failure 410 {object} router.errorResponse "Code expired"
// @Router /api/v1/identity/login/verify [post]
func (h *HTTPEndpoint) LoginVerify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginVerify(r.Context(), usecase.LoginVerifyInput{
		Email:        req.Email,
		Code:         req.Code,
		ChallengeRef: req.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}

	return sessionResponse(resp), nil
}

// @Summary Resend login code
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login payload"
// @Success 200 {object} router.successResponse{data=LoginResendResponse} "Challenge reissued"
// @Failure 401 {object} router.errorResponse "Invalid credentials"
// @Failure 429 {object} router.errorResponse "Cooldown active"
// @Router /api/v1/identity/login/resend [post]
func (h *HTTPEndpoint) LoginResend(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.LoginResend(r.Context(), usecase.LoginResendInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResendResponse{ChallengeRef: resp.ChallengeRef, ExpiresAt: resp.ExpiresAt}, nil
}

// RefreshToken issues a new access token using a refresh token.
// @Summary Refresh access token
// @Description Exchanges a refresh token for a new access/refresh token pair.
// @Tags Identity, Authentication
// @Accept json
// @Produce json
// @Param request body RefreshTokenRequest true "Refresh token payload"
// @Success 200 {object} router.successResponse{data=RefreshTokenResponse} "Token refresh result"
// @Failure 401 {object} router.errorResponse "Invalid refresh token"
// @Router /api/v1/identity/refresh [post]
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

// @Summary Logout
// @Tags Identity, Authentication
// @Security BearerAuth
// @Param request body LogoutRequest true "Logout payload"
// @Success 200 {object} router.successResponse{data=LogoutResponse} "Logged out"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/identity/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken}); err != nil {
		return nil, err
	}

	return LogoutResponse{}, nil
}

// @Summary Get profile
// @Tags Identity, Profile
// @Security BearerAuth
// @Success 200 {object} router.successResponse{data=ProfileResponse} "Profile"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Router /api/v1/identity/profile [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:              resp.ID,
		Email:           resp.Email,
		FullName:        resp.FullName,
		Status:          resp.Status,
		EmailVerifiedAt: resp.EmailVerifiedAt,
	}, nil
}
