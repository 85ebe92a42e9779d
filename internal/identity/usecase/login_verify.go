package usecase

import (
	"context"
	"log/slog"
	"strings"

	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type LoginVerifyInput struct {
	Email        string `validate:"required,email"`
	Code         string `validate:"required,otpcode"`
	ChallengeRef string
}

func (s *Usecase) LoginVerify(ctx context.Context, in LoginVerifyInput) (*otpentity.Session, error) {
	ctx, span := s.startSpan(ctx, "LoginVerify")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	userID, err := s.ownerOf(ctx, in.Email)
	if err != nil {
		return nil, err
	}

	res, err := s.challenger.VerifyChallenge(ctx, otpusecase.VerifyInput{
		Destination:  in.Email,
		Code:         in.Code,
		Purpose:      otpentity.PurposeLogin,
		OwnerID:      userID,
		ChallengeRef: in.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}
	if res.Session == nil {
		slog.ErrorContext(ctx, "login verified without session result", "user_id", userID)
		return nil, goerror.NewServer(errMissingTransition)
	}

	return res.Session, nil
}

type LoginResendInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginResendOutput = RegisterOutput

// LoginResend requires the password again before replacing the login code.
func (s *Usecase) LoginResend(ctx context.Context, in LoginResendInput) (*LoginResendOutput, error) {
	ctx, span := s.startSpan(ctx, "LoginResend")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.checkCredential(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	issued, err := s.challenger.ResendChallenge(ctx, otpusecase.IssueInput{
		Destination: user.Email,
		Purpose:     otpentity.PurposeLogin,
		OwnerID:     user.ID,
	})
	if err != nil {
		return nil, err
	}

	return &LoginResendOutput{ChallengeRef: issued.ChallengeRef, ExpiresAt: issued.ExpiresAt}, nil
}
