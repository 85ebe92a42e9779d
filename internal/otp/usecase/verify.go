package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifyInput struct {
	Destination string `validate:"required,email"`
	Code        string `validate:"required,otpcode"`
	Purpose     entity.Purpose
	OwnerID     int64 `validate:"gt=0"`
	SubjectID   int64 `validate:"gte=0"`
	// ChallengeRef is optional. A code or ref of a superseded challenge is
	// reported as not found either way.
	ChallengeRef string
}

// VerifyChallenge checks a code, consumes the challenge and applies the
// purpose's transition.
func (s *Usecase) VerifyChallenge(ctx context.Context, in VerifyInput) (*entity.TransitionResult, error) {
	ctx, span := s.startSpan(ctx, "VerifyChallenge")
	defer span.End()

	in.Destination = strings.ToLower(strings.TrimSpace(in.Destination))
	in.Code = strings.TrimSpace(in.Code)
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

	key := entity.Key{Destination: in.Destination, Purpose: in.Purpose, SubjectID: in.SubjectID}
	material := codeMaterial(key, in.OwnerID, in.Code)
	now := s.clock.Now()

	digest, err := s.hmac.Hash(material)
	if err != nil {
		slog.ErrorContext(ctx, "failed to digest otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ch, result, err := s.store.GetAndIncrementAttempts(ctx, key, entity.AttemptQuery{
		ChallengeRef: in.ChallengeRef,
		CodeDigest:   string(digest),
		OwnerID:      in.OwnerID,
		Now:          now,
		MaxAttempts:  s.maxAttempts(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to load otp challenge", "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	switch result {
	case entity.AttemptNotFound:
		slog.WarnContext(ctx, "otp challenge not found", "purpose", in.Purpose.String(), "owner_id", in.OwnerID)
		s.metrics.fail(ctx, in.Purpose, "not_found")
		return nil, entity.ErrChallengeNotFound
	case entity.AttemptExpired:
		slog.WarnContext(ctx, "otp challenge expired", "purpose", in.Purpose.String(), "owner_id", in.OwnerID)
		s.metrics.fail(ctx, in.Purpose, entity.CounterExpired)
		return nil, entity.ErrChallengeExpired
	case entity.AttemptExhausted:
		slog.WarnContext(ctx, "otp challenge attempts exhausted", "purpose", in.Purpose.String(), "owner_id", in.OwnerID)
		s.metrics.fail(ctx, in.Purpose, entity.CounterExhausted)
		return nil, entity.ErrAttemptsExhausted
	}

	if !s.hmac.Verify(ch.CodeDigest, material) {
		slog.WarnContext(ctx, "otp code mismatch", "challenge_id", ch.ID, "attempts", ch.Attempts)
		s.incrStat(ctx, ch.Purpose, entity.CounterInvalid)
		s.metrics.fail(ctx, ch.Purpose, entity.CounterInvalid)
		return nil, entity.ErrInvalidCode
	}

	consumed, err := s.store.MarkConsumed(ctx, key, ch.ID, now, s.consumedRetention())
	if err != nil {
		slog.ErrorContext(ctx, "failed to consume otp challenge", "challenge_id", ch.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !consumed {
		slog.WarnContext(ctx, "otp challenge consumed concurrently", "challenge_id", ch.ID)
		return nil, entity.ErrChallengeNotFound
	}

	s.metrics.verified.Add(ctx, 1, purposeAttr(ch.Purpose))

	return s.transition(ctx, *ch)
}
