package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

var errMissingTransition = errors.New("identity: verification returned no transition result")

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	CreateUser(ctx context.Context, u entity.User) error
	ActivateUser(ctx context.Context, id int64, at time.Time) (*entity.Activation, error)
}

type repoSession interface {
	CreateSession(ctx context.Context, digest string, userID int64, ttl time.Duration) error
	SessionOwner(ctx context.Context, digest string) (int64, error)
	RotateSession(ctx context.Context, oldDigest, newDigest string, userID int64, ttl time.Duration) error
	RevokeSession(ctx context.Context, digest string, userID int64) (bool, error)
}

type repoMessaging interface {
	PublishAccountActivated(ctx context.Context, eventID string, a entity.Activation) error
}

// challenger is the slice of the otp engine identity drives.
type challenger interface {
	IssueChallenge(ctx context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error)
	VerifyChallenge(ctx context.Context, in otpusecase.VerifyInput) (*otpentity.TransitionResult, error)
	ResendChallenge(ctx context.Context, in otpusecase.IssueInput) (*otpentity.Issued, error)
}

type Usecase struct {
	repoDB        repoDB
	repoSession   repoSession
	repoMessaging repoMessaging
	challenger    challenger
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	password      hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	tokens        uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoSession   repoSession
	RepoMessaging repoMessaging
	Challenger    challenger
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	Password      hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	Tokens        uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoSession:   dep.RepoSession,
		repoMessaging: dep.RepoMessaging,
		challenger:    dep.Challenger,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		password:      dep.Password,
		uid:           dep.UID,
		uuid:          dep.UUID,
		tokens:        dep.Tokens,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusActive:
		return nil

	case entity.UserStatusUnverified:
		slog.WarnContext(ctx, "user account is unverified", "user_id", userID)
		return goerror.NewBusiness("Email not verified", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("Account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deactivated", "user_id", userID)
		return goerror.NewBusiness("Account is deactivated", goerror.CodeForbidden)

	default:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("Account status is unrecognized", goerror.CodeForbidden)
	}
}

func (s *Usecase) sessionTTL() time.Duration {
	if d := s.cfg.GetDay("modules.identity.session_ttl_days"); d > 0 {
		return d
	}
	return 7 * 24 * time.Hour
}

func (s *Usecase) bypassesLogin(email string) bool {
	return lo.Contains(
		lo.Map(s.cfg.GetArray("modules.identity.login_bypass_emails"), func(e string, _ int) string {
			return strings.ToLower(e)
		}),
		email,
	)
}

// publishActivated hands the event to the goroutine manager so the verify
// request never waits on the broker.
func (s *Usecase) publishActivated(ctx context.Context, a entity.Activation) {
	eventID := s.uuid.Generate()

	started := s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		b := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
		if err := retry.Do(ctx, b, func(ctx context.Context) error {
			if err := s.repoMessaging.PublishAccountActivated(ctx, eventID, a); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish account activated", "user_id", a.UserID, "event_id", eventID, "error", err)
		}
		return nil
	})
	if !started {
		slog.WarnContext(ctx, "account activated event dropped", "user_id", a.UserID, "event_id", eventID)
	}
}

// ownerOf resolves the user a code was issued to. An unknown email reads as
// a missing challenge so verify endpoints do not reveal registrations.
func (s *Usecase) ownerOf(ctx context.Context, email string) (int64, error) {
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification for unknown email")
		return 0, otpentity.ErrChallengeNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
		return 0, goerror.NewServer(err)
	}
	return user.ID, nil
}
