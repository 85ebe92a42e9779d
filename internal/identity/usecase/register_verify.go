package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type RegisterVerifyInput struct {
	Email        string `validate:"required,email"`
	Code         string `validate:"required,otpcode"`
	ChallengeRef string
}

type RegisterVerifyOutput struct {
	UserID     int64
	Email      string
	VerifiedAt time.Time
}

func (s *Usecase) RegisterVerify(ctx context.Context, in RegisterVerifyInput) (*RegisterVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "RegisterVerify")
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
		Purpose:      otpentity.PurposeRegistration,
		OwnerID:      userID,
		ChallengeRef: in.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}
	if res.Account == nil {
		slog.ErrorContext(ctx, "registration verified without account result", "user_id", userID)
		return nil, goerror.NewServer(errMissingTransition)
	}

	return &RegisterVerifyOutput{
		UserID:     res.Account.UserID,
		Email:      res.Account.Email,
		VerifiedAt: res.Account.VerifiedAt,
	}, nil
}
