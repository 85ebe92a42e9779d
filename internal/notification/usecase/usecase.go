package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoMail interface {
	SendWelcome(ctx context.Context, w entity.Welcome) error
	SendOrderConfirmed(ctx context.Context, o entity.OrderConfirmed) error
}

type tracker interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...idempotency.Option) error
}

type Usecase struct {
	repoMail  repoMail
	tracker   tracker
	validator validator.Validator
	cfg       config.Config
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoMail   repoMail
	Tracker    tracker
	Validator  validator.Validator
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoMail:  dep.RepoMail,
		tracker:   dep.Tracker,
		validator: dep.Validator,
		cfg:       dep.Config,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

// deliverOnce sends at most one email per event id. Duplicate deliveries
// are acknowledged without sending. A failed send releases the key and is
// returned so the broker redelivers.
func (s *Usecase) deliverOnce(ctx context.Context, kind entity.Kind, eventID string, send func(context.Context) error) error {
	key := "notification:" + kind.String() + ":" + eventID

	err := s.tracker.Exec(ctx, key, func(ctx context.Context) error {
		b := retry.WithMaxRetries(s.mailRetries(), retry.NewExponential(500*time.Millisecond))
		return retry.Do(ctx, b, func(ctx context.Context) error {
			if err := send(ctx); err != nil {
				slog.WarnContext(ctx, "email send attempt failed", "kind", kind.String(), "event_id", eventID, "error", err)
				return retry.RetryableError(err)
			}
			return nil
		})
	}, idempotency.WithStateTTL(s.dedupTTL()))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted):
		slog.InfoContext(ctx, "duplicate event skipped", "kind", kind.String(), "event_id", eventID)
		return nil
	case errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "event handled by another worker", "kind", kind.String(), "event_id", eventID)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send email", "kind", kind.String(), "event_id", eventID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "email sent", "kind", kind.String(), "event_id", eventID)
	return nil
}

func (s *Usecase) mailRetries() uint64 {
	if n := s.cfg.GetInt("modules.notification.mail_retries"); n > 0 {
		return uint64(n)
	}
	return 2
}

func (s *Usecase) dedupTTL() time.Duration {
	if d := s.cfg.GetDay("modules.notification.dedup_ttl_days"); d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}
