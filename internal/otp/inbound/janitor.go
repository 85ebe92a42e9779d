package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"go.uber.org/atomic"
)

type sweepUsecase interface {
	SweepNow(ctx context.Context) (int64, error)
}

// Janitor periodically removes expired and stale consumed challenges.
// Overlapping runs (a tick while an admin sweep is in flight) are skipped.
type Janitor struct {
	uc       sweepUsecase
	interval time.Duration
	busy     atomic.Bool
	runs     atomic.Int64
	deleted  atomic.Int64
}

func NewJanitor(uc sweepUsecase, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{uc: uc, interval: interval}
}

// Start runs the janitor loop under gm until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context, gm *goroutine.Manager) bool {
	return gm.Go(ctx, j.loop)
}

func (j *Janitor) loop(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "otp janitor started", "interval", j.interval.String())

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "otp janitor stopped", "runs", j.runs.Load(), "deleted", j.deleted.Load())
			return nil
		case <-ticker.C:
			if _, err := j.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "otp janitor run failed", "error", err)
			}
		}
	}
}

// Run performs one sweep. It returns zero without sweeping when another
// run is in progress.
func (j *Janitor) Run(ctx context.Context) (int64, error) {
	if !j.busy.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer j.busy.Store(false)

	n, err := j.uc.SweepNow(ctx)
	j.runs.Inc()
	if err != nil {
		return 0, err
	}
	j.deleted.Add(n)

	return n, nil
}

func (j *Janitor) Runs() int64 {
	return j.runs.Load()
}
