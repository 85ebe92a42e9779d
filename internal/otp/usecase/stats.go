package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func (s *Usecase) Stats(ctx context.Context) (*entity.Stats, error) {
	ctx, span := s.startSpan(ctx, "Stats")
	defer span.End()

	rows, err := s.store.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read otp stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	// every purpose is reported, zero counters included
	byPurpose := lo.KeyBy(rows, func(r entity.PurposeStats) entity.Purpose { return r.Purpose })
	purposes := lo.Map(entity.Purposes, func(p entity.Purpose, _ int) entity.PurposeStats {
		row, ok := byPurpose[p]
		if !ok {
			return entity.PurposeStats{Purpose: p}
		}
		return row
	})

	return &entity.Stats{GeneratedAt: s.clock.Now(), Purposes: purposes}, nil
}

type ExportOutput struct {
	URL       string
	ExpiresAt time.Time
}

// ExportStats writes a stats snapshot to object storage and returns a
// presigned link to it.
func (s *Usecase) ExportStats(ctx context.Context) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportStats")
	defer span.End()

	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.exporter.Export(ctx, *stats)
	if err != nil {
		slog.ErrorContext(ctx, "failed to export otp stats", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportOutput{URL: url, ExpiresAt: expiresAt}, nil
}
