package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes challenge status and the admin tooling of the otp engine.
type HTTPEndpoint struct {
	uc      uc
	sweeper sweeper
}

// Status reports whether a challenge can still be verified.
// @Summary Challenge status
// @Tags OTP
// @Accept json
// @Produce json
// @Param request body StatusRequest true "Challenge lookup"
// @Success 200 {object} router.successResponse{data=StatusResponse}
// @Failure 400 {object} router.errorResponse "Invalid request body"
// @Failure 422 {object} router.errorResponse "Validation error"
// @Router /api/v1/otp/status [post]
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	var req StatusRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	purpose, err := entity.ParsePurpose(req.Purpose)
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.ChallengeStatus(r.Context(), usecase.StatusInput{
		Destination:  req.Destination,
		Purpose:      purpose,
		SubjectID:    req.SubjectID,
		ChallengeRef: req.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}

	out := StatusResponse{Pending: resp.Pending}
	if resp.Pending {
		out.ExpiresAt = &resp.ExpiresAt
		out.AttemptsLeft = lo.ToPtr(max(entity.MaxAttempts-resp.Attempts, 0))
	}

	return out, nil
}

// Stats returns the per purpose counters.
// @Summary OTP statistics
// @Tags OTP, Admin
// @Produce json
// @Success 200 {object} router.successResponse{data=StatsResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Access denied"
// @Router /api/v1/otp/stats [get]
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	resp, err := h.uc.Stats(r.Context())
	if err != nil {
		return nil, err
	}

	return StatsResponse{GeneratedAt: resp.GeneratedAt, Purposes: resp.Purposes}, nil
}

// ExportStats uploads a stats snapshot and returns a download link.
// @Summary Export OTP statistics
// @Tags OTP, Admin
// @Produce json
// @Success 200 {object} router.successResponse{data=ExportStatsResponse}
// @Failure 401 {object} router.errorResponse "Authentication required"
// @Failure 403 {object} router.errorResponse "Access denied"
// @Router /api/v1/otp/stats/export [post]
func (h *HTTPEndpoint) ExportStats(r *router.Request) (any, error) {
	resp, err := h.uc.ExportStats(r.Context())
	if err != nil {
		return nil, err
	}

	return ExportStatsResponse{URL: resp.URL, ExpiresAt: resp.ExpiresAt}, nil
}

// Sweep removes expired and stale consumed challenges now.
// @Summary Run the challenge janitor
// @Tags OTP, Admin
// @Produce json
// @Success 200 {object} router.successResponse{data=SweepResponse}
// @Router /api/v1/otp/sweep [post]
func (h *HTTPEndpoint) Sweep(r *router.Request) (any, error) {
	n, err := h.sweeper.Run(r.Context())
	if err != nil {
		return nil, err
	}

	return SweepResponse{Deleted: n}, nil
}
