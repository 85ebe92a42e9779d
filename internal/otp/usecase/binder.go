package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// AccountActivator moves a registered user from unverified to active.
type AccountActivator interface {
	ActivateAccount(ctx context.Context, userID int64) (*entity.Account, error)
}

// SessionIssuer opens a session for a user who proved the login code.
type SessionIssuer interface {
	IssueSession(ctx context.Context, userID int64) (*entity.Session, error)
}

// OrderConfirmer confirms a pending order owned by ownerID.
type OrderConfirmer interface {
	ConfirmOrder(ctx context.Context, ownerID, orderID int64) (*entity.Order, error)
}

// Binders maps each purpose to the module that applies its transition.
type Binders struct {
	Registration      AccountActivator `validate:"required"`
	Login             SessionIssuer    `validate:"required"`
	OrderConfirmation OrderConfirmer   `validate:"required"`
}

var errBindersMissing = errors.New("otp: transition binders are not configured")

// Bind installs the transition binders. It is called once at start-up after
// the owning modules are built.
func (s *Usecase) Bind(b Binders) error {
	if err := s.validator.Validate(b); err != nil {
		return err
	}
	s.binders.Store(&b)
	return nil
}

// transition applies the business effect of a consumed challenge. The
// challenge stays consumed when the binder fails.
func (s *Usecase) transition(ctx context.Context, ch entity.Challenge) (*entity.TransitionResult, error) {
	b := s.binders.Load()
	if b == nil {
		slog.ErrorContext(ctx, "otp transition without binders", "challenge_id", ch.ID)
		return nil, goerror.NewServer(errBindersMissing)
	}

	res := &entity.TransitionResult{Purpose: ch.Purpose}

	var err error
	switch ch.Purpose {
	case entity.PurposeRegistration:
		res.Account, err = b.Registration.ActivateAccount(ctx, ch.OwnerID)
	case entity.PurposeLogin:
		res.Session, err = b.Login.IssueSession(ctx, ch.OwnerID)
	case entity.PurposeOrderConfirmation:
		res.Order, err = b.OrderConfirmation.ConfirmOrder(ctx, ch.OwnerID, ch.SubjectID)
	default:
		return nil, entity.ErrInvalidPurpose
	}

	if err == nil {
		return res, nil
	}

	slog.WarnContext(ctx, "otp transition failed", "challenge_id", ch.ID, "purpose", ch.Purpose.String(), "error", err)

	if errors.Is(err, goerror.ErrConflict) {
		return nil, entity.ErrTransitionConflict
	}

	var gerr *goerror.Error
	if errors.As(err, &gerr) {
		return nil, err
	}

	return nil, goerror.NewServer(err)
}
