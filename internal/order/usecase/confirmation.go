package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/order/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	otpusecase "github.com/shandysiswandi/otpgate/internal/otp/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

type ConfirmationOutput struct {
	ChallengeRef string
	ExpiresAt    time.Time
}

type VerifyConfirmationInput struct {
	OrderID      int64  `validate:"gt=0"`
	Code         string `validate:"required,otpcode"`
	ChallengeRef string
}

type VerifyConfirmationOutput struct {
	OrderID           int64
	Status            string
	ConfirmedAt       time.Time
	EstimatedDelivery time.Time
}

// RequestConfirmation sends an order confirmation code to the caller's email.
func (s *Usecase) RequestConfirmation(ctx context.Context, orderID int64) (*ConfirmationOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestConfirmation")
	defer span.End()

	clm, o, err := s.pendingOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	issued, err := s.challenger.IssueChallenge(ctx, s.confirmationInput(clm, o))
	if err != nil {
		return nil, err
	}

	return &ConfirmationOutput{ChallengeRef: issued.ChallengeRef, ExpiresAt: issued.ExpiresAt}, nil
}

func (s *Usecase) ResendConfirmation(ctx context.Context, orderID int64) (*ConfirmationOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendConfirmation")
	defer span.End()

	clm, o, err := s.pendingOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	issued, err := s.challenger.ResendChallenge(ctx, s.confirmationInput(clm, o))
	if err != nil {
		return nil, err
	}

	return &ConfirmationOutput{ChallengeRef: issued.ChallengeRef, ExpiresAt: issued.ExpiresAt}, nil
}

func (s *Usecase) VerifyConfirmation(ctx context.Context, in VerifyConfirmationInput) (*VerifyConfirmationOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyConfirmation")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, entity.ErrAuthRequired
	}

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	res, err := s.challenger.VerifyChallenge(ctx, otpusecase.VerifyInput{
		Destination:  strings.ToLower(clm.UserEmail),
		Code:         in.Code,
		Purpose:      otpentity.PurposeOrderConfirmation,
		OwnerID:      clm.UserID,
		SubjectID:    in.OrderID,
		ChallengeRef: in.ChallengeRef,
	})
	if err != nil {
		return nil, err
	}
	if res.Order == nil {
		slog.ErrorContext(ctx, "order confirmation verified without order result", "order_id", in.OrderID)
		return nil, goerror.NewServer(errMissingOrderResult)
	}

	return &VerifyConfirmationOutput{
		OrderID:           res.Order.OrderID,
		Status:            res.Order.Status,
		ConfirmedAt:       res.Order.ConfirmedAt,
		EstimatedDelivery: res.Order.EstimatedDelivery,
	}, nil
}

func (s *Usecase) pendingOrder(ctx context.Context, orderID int64) (*jwt.Claims, *entity.Order, error) {
	clm, o, err := s.ownedOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.Status != entity.StatusPending {
		slog.WarnContext(ctx, "confirmation for order not pending", "order_id", orderID, "status", o.Status.String())
		return nil, nil, entity.ErrNotPending
	}
	return clm, o, nil
}

func (s *Usecase) confirmationInput(clm *jwt.Claims, o *entity.Order) otpusecase.IssueInput {
	return otpusecase.IssueInput{
		Destination: strings.ToLower(clm.UserEmail),
		Purpose:     otpentity.PurposeOrderConfirmation,
		OwnerID:     clm.UserID,
		SubjectID:   o.ID,
	}
}
