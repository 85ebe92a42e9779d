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

type RegisterInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
	FullName string `validate:"required,min=5,max=100,alphaspace"`
}

type RegisterOutput struct {
	ChallengeRef string
	ExpiresAt    time.Time
}

// Register creates an unverified user and mails a registration code. A user
// still unverified from an earlier attempt gets a fresh code instead.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil && user.Status == entity.UserStatusUnverified:
		slog.WarnContext(ctx, "registration for unverified user, reissuing code", "user_id", user.ID)
		return s.issueRegistration(ctx, user)

	case err == nil:
		slog.WarnContext(ctx, "email already registered", "user_id", user.ID, "status", user.Status.String())
		return nil, entity.ErrEmailRegistered

	case !errors.Is(err, goerror.ErrNotFound):
		slog.ErrorContext(ctx, "failed to repo get user by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	hashedPassword, err := s.password.Hash(in.Password)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return nil, goerror.NewServer(err)
	}

	newUser := entity.User{
		ID:           s.uid.Generate(),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: string(hashedPassword),
		Status:       entity.UserStatusUnverified,
		CreatedAt:    s.clock.Now(),
	}

	err = s.repoDB.CreateUser(ctx, newUser)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "concurrent registration for the same email")
		return nil, entity.ErrEmailRegistered
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.issueRegistration(ctx, &newUser)
}

func (s *Usecase) issueRegistration(ctx context.Context, user *entity.User) (*RegisterOutput, error) {
	issued, err := s.challenger.IssueChallenge(ctx, otpusecase.IssueInput{
		Destination: user.Email,
		Purpose:     otpentity.PurposeRegistration,
		OwnerID:     user.ID,
	})
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{ChallengeRef: issued.ChallengeRef, ExpiresAt: issued.ExpiresAt}, nil
}
