package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

type repoStore interface {
	Replace(ctx context.Context, ch entity.Challenge) error
	Get(ctx context.Context, key entity.Key) (*entity.Challenge, error)
	GetAndIncrementAttempts(ctx context.Context, key entity.Key, q entity.AttemptQuery) (*entity.Challenge, entity.AttemptResult, error)
	MarkConsumed(ctx context.Context, key entity.Key, id string, consumedAt time.Time, retention time.Duration) (bool, error)
	DeleteIfID(ctx context.Context, key entity.Key, id string) (bool, error)
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)

	IncrStat(ctx context.Context, p entity.Purpose, c entity.Counter) error
	Stats(ctx context.Context) ([]entity.PurposeStats, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
	Remaining(ctx context.Context, key string) (time.Duration, error)
}

type notifier interface {
	Send(ctx context.Context, d entity.Delivery) error
}

type exporter interface {
	Export(ctx context.Context, stats entity.Stats) (string, time.Time, error)
}

type Usecase struct {
	store     repoStore
	limiter   rateLimiter
	notifier  notifier
	exporter  exporter
	validator validator.Validator
	cfg       config.Config
	hmac      hash.Hash
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
	metrics   metrics
	binders   atomic.Pointer[Binders]
	genCode   func() (string, error)
}

type Dependency struct {
	Store      repoStore
	Limiter    rateLimiter
	Notifier   notifier
	Exporter   exporter
	Validator  validator.Validator
	Config     config.Config
	HMAC       hash.Hash
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		store:     dep.Store,
		limiter:   dep.Limiter,
		notifier:  dep.Notifier,
		exporter:  dep.Exporter,
		validator: dep.Validator,
		cfg:       dep.Config,
		hmac:      dep.HMAC,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
		metrics:   newMetrics(dep.Instrument.Meter("otp.usecase")),
		genCode:   generateCode,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.otp.max_attempts"); n > 0 {
		return n
	}
	return entity.MaxAttempts
}

func (s *Usecase) notifierTimeout() time.Duration {
	if d := s.cfg.GetSecond("modules.otp.notifier_timeout_seconds"); d > 0 {
		return d
	}
	return 5 * time.Second
}

func (s *Usecase) consumedRetention() time.Duration {
	if d := s.cfg.GetSecond("modules.otp.consumed_retention_seconds"); d > 0 {
		return d
	}
	return 5 * time.Second
}

// cooldownKey scopes the limiter to a destination and purpose. The
// destination is digested so emails never appear in redis keys.
func (s *Usecase) cooldownKey(ctx context.Context, destination string, p entity.Purpose) string {
	digest, err := s.hmac.Hash(destination)
	if err != nil {
		slog.WarnContext(ctx, "failed to digest destination for cooldown key", "error", err)
		return p.String() + ":" + destination
	}
	return p.String() + ":" + string(digest)
}

// incrStat never fails the caller; counters are best effort.
func (s *Usecase) incrStat(ctx context.Context, p entity.Purpose, c entity.Counter) {
	if err := s.store.IncrStat(ctx, p, c); err != nil {
		slog.WarnContext(ctx, "failed to increment otp stat", "purpose", p.String(), "counter", string(c), "error", err)
	}
}
