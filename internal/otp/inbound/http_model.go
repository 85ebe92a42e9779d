package inbound

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
)

type StatusRequest struct {
	Destination  string `json:"destination"`
	Purpose      string `json:"purpose"`
	SubjectID    int64  `json:"subject_id"`
	ChallengeRef string `json:"challenge_ref"`
}

type StatusResponse struct {
	Pending      bool       `json:"pending"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	AttemptsLeft *int       `json:"attempts_left,omitempty"`
}

type StatsResponse struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Purposes    []entity.PurposeStats `json:"purposes"`
}

type ExportStatsResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (ExportStatsResponse) Message() string {
	return "Stats exported"
}

type SweepResponse struct {
	Deleted int64 `json:"deleted"`
}
