package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RegisterResendInput struct {
	Email string `validate:"required,email"`
}

// RegisterResend mails a new registration code. Unknown and already active
// emails get the same silent success so the endpoint cannot be used to enumerate accounts.
func (s *Usecase) RegisterResend(ctx context.Context, in RegisterResendInput) error {
	ctx, span := s.startSpan(ctx, "RegisterResend")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "email not registered for resend")
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
		return goerror.NewServer(err)
	}

	if user.Status != entity.UserStatusUnverified {
		slog.WarnContext(ctx, "resend for user not awaiting verification", "user_id", user.ID, "status", user.Status.String())
		return nil
	}

	if _, err := s.challenger.ResendChallenge(ctx, otpusecase.IssueInput{
		Destination: user.Email,
		Purpose:     otpentity.PurposeRegistration,
		OwnerID:     user.ID,
	}); err != nil {
		return err
	}

	return nil
}
