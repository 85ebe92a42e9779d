package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type StatusInput struct {
	Destination  string `validate:"required,email"`
	Purpose      entity.Purpose
	OwnerID      int64  `validate:"gte=0"`
	SubjectID    int64  `validate:"gte=0"`
	ChallengeRef string `validate:"required"`
}

// ChallengeStatus reports whether the referenced challenge can still be
// verified. Anything but the current, unconsumed challenge reads as not
// pending so the answer reveals nothing about other challenges.
func (s *Usecase) ChallengeStatus(ctx context.Context, in StatusInput) (*entity.Status, error) {
	ctx, span := s.startSpan(ctx, "ChallengeStatus")
	defer span.End()

	in.Destination = strings.ToLower(strings.TrimSpace(in.Destination))
	in.ChallengeRef = strings.TrimSpace(in.ChallengeRef)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := checkPurpose(in.Purpose, in.SubjectID); err != nil {
		return nil, err
	}
	if !in.Purpose.RequiresSubject() {
		in.SubjectID = 0
	}

	ch, err := s.store.Get(ctx, entity.Key{Destination: in.Destination, Purpose: in.Purpose, SubjectID: in.SubjectID})
	if errors.Is(err, goerror.ErrNotFound) {
		return &entity.Status{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp challenge", "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	if ch.ID != in.ChallengeRef || ch.Consumed || ch.Expired(s.clock.Now()) ||
		(in.OwnerID > 0 && ch.OwnerID != in.OwnerID) || ch.Attempts >= s.maxAttempts() {
		return &entity.Status{}, nil
	}

	return &entity.Status{Pending: true, ExpiresAt: ch.ExpiresAt, Attempts: ch.Attempts}, nil
}
