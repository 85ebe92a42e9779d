package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/order/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

var errMissingOrderResult = errors.New("order: verification returned no order result")

type repoDB interface {
	CreateOrder(ctx context.Context, o entity.Order) error
	GetOrder(ctx context.Context, id, ownerID int64) (*entity.Order, error)
	ListOrders(ctx context.Context, ownerID int64, limit, offset int32) ([]entity.Order, int64, error)
	ConfirmOrder(ctx context.Context, id, ownerID int64, at, estimate time.Time) (*entity.Confirmation, error)
	CancelOrder(ctx context.Context, id, ownerID int64, at time.Time) (*entity.Order, error)
}

type repoMessaging interface {
	PublishOrderConfirmed(ctx context.Context, eventID string, c entity.Confirmation) error
}

type challenger interface {
	IssueChallenge(ctx context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error)
	VerifyChallenge(ctx context.Context, in otpusecase.VerifyInput) (*otpentity.TransitionResult, error)
	ResendChallenge(ctx context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	challenger    challenger
	validator     validator.Validator
	cfg           config.Config
	uid           uid.NumberID
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Challenger    challenger
	Validator     validator.Validator
	Config        config.Config
	UID           uid.NumberID
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		challenger:    dep.Challenger,
		validator:     dep.Validator,
		cfg:           dep.Config,
		uid:           dep.UID,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("order.usecase").Start(ctx, name)
}

func (s *Usecase) deliveryEstimate() time.Duration {
	if d := s.cfg.GetDay("modules.order.delivery_estimate_days"); d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

// ownedOrder loads an order of the authenticated caller.
func (s *Usecase) ownedOrder(ctx context.Context, orderID int64) (*jwt.Claims, *entity.Order, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, nil, entity.ErrAuthRequired
	}

	o, err := s.repoDB.GetOrder(ctx, orderID, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "order not found for owner", "order_id", orderID, "owner_id", clm.UserID)
		return nil, nil, entity.ErrOrderNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get order", "order_id", orderID, "error", err)
		return nil, nil, goerror.NewServer(err)
	}

	return clm, o, nil
}

func (s *Usecase) publishConfirmed(ctx context.Context, c entity.Confirmation) {
	eventID := s.uuid.Generate()

	started := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		b := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		if err := retry.Do(ctx, b, func(ctx context.Context) error {
			if err := s.repoMessaging.PublishOrderConfirmed(ctx, eventID, c); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish order confirmed", "order_id", c.Order.ID, "event_id", eventID, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "order confirmed event dropped", "order_id", c.Order.ID, "event_id", eventID)
	}
}
