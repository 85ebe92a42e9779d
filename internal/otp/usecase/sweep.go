package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// Sweep deletes challenges that expired, or were consumed and outlived their
// retention, before now.
func (s *Usecase) Sweep(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	n, err := s.store.DeleteExpiredBefore(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sweep otp challenges", "error", err)
		return 0, goerror.NewServer(err)
	}

	if n > 0 {
		s.metrics.swept.Add(ctx, n)
		slog.InfoContext(ctx, "otp challenges swept", "deleted", n)
	}

	return n, nil
}

// SweepNow runs Sweep at the current clock time.
func (s *Usecase) SweepNow(ctx context.Context) (int64, error) {
	return s.Sweep(ctx, s.clock.Now())
}
