package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// LoginOutput carries a challenge to verify, or a session when the email is
// on the bypass list.
type LoginOutput struct {
	ChallengeRef string
	ExpiresAt    time.Time
	Session      *otpentity.Session
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.checkCredential(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	if s.bypassesLogin(user.Email) {
		slog.InfoContext(ctx, "login code bypassed", "user_id", user.ID)
		sess, err := s.newSession(ctx, user)
		if err != nil {
			return nil, err
		}
		return &LoginOutput{Session: sess}, nil
	}

	issued, err := s.challenger.IssueChallenge(ctx, otpusecase.IssueInput{
		Destination: user.Email,
		Purpose:     otpentity.PurposeLogin,
		OwnerID:     user.ID,
	})
	if err != nil {
		return nil, err
	}

	return &LoginOutput{ChallengeRef: issued.ChallengeRef, ExpiresAt: issued.ExpiresAt}, nil
}

// checkCredential finds an active user by email and checks the password.
func (s *Usecase) checkCredential(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found for login")
		return nil, entity.ErrInvalidCredential
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, entity.ErrInvalidCredential
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	return user, nil
}
