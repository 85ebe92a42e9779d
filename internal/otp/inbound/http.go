package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	ChallengeStatus(ctx context.Context, in usecase.StatusInput) (*entity.Status, error)
	Stats(ctx context.Context) (*entity.Stats, error)
	ExportStats(ctx context.Context) (*usecase.ExportOutput, error)
}

type sweeper interface {
	Run(ctx context.Context) (int64, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, sw sweeper) {
	end := &HTTPEndpoint{uc: uc, sweeper: sw}

	r.POST("/api/v1/otp/status", end.Status)

	// admin only
	r.GET("/api/v1/otp/stats", end.Stats, r.Authorize("otp_stats", "read"))
	r.POST("/api/v1/otp/stats/export", end.ExportStats, r.Authorize("otp_stats", "export"))
	r.POST("/api/v1/otp/sweep", end.Sweep, r.Authorize("otp_challenges", "sweep"))
}
