package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type IssueInput struct {
	Destination string `validate:"required,email"`
	Purpose     entity.Purpose
	OwnerID     int64 `validate:"gt=0"`
	SubjectID   int64 `validate:"gte=0"`
}

func (in *IssueInput) normalize() {
	in.Destination = strings.ToLower(strings.TrimSpace(in.Destination))
}

func checkPurpose(p entity.Purpose, subjectID int64) error {
	if !p.Valid() {
		return entity.ErrInvalidPurpose
	}
	if p.RequiresSubject() && subjectID <= 0 {
		return goerror.NewInvalidInput(nil, "SubjectID", "SubjectID is required")
	}
	return nil
}

// IssueChallenge stores a fresh code for the destination and purpose and
// delivers it. A previous challenge for the same key is replaced.
func (s *Usecase) IssueChallenge(ctx context.Context, in IssueInput) (*entity.Issued, error) {
	ctx, span := s.startSpan(ctx, "IssueChallenge")
	defer span.End()

	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}
	if err := checkPurpose(in.Purpose, in.SubjectID); err != nil {
		return nil, err
	}
	if !in.Purpose.RequiresSubject() {
		in.SubjectID = 0
	}

	return s.issue(ctx, in)
}

func (s *Usecase) issue(ctx context.Context, in IssueInput) (*entity.Issued, error) {
	cdKey := s.cooldownKey(ctx, in.Destination, in.Purpose)

	allowed, err := s.limiter.Allow(ctx, cdKey)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check otp cooldown", "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "otp request inside cooldown", "purpose", in.Purpose.String(), "owner_id", in.OwnerID)
		s.metrics.fail(ctx, in.Purpose, "rate_limited")
		return nil, s.rateLimited(ctx, cdKey)
	}

	code, err := s.genCode()
	if err != nil {
		s.release(ctx, cdKey)
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	id := s.uuid.Generate()
	key := entity.Key{Destination: in.Destination, Purpose: in.Purpose, SubjectID: in.SubjectID}

	digest, err := s.hmac.Hash(codeMaterial(key, in.OwnerID, code))
	if err != nil {
		s.release(ctx, cdKey)
		slog.ErrorContext(ctx, "failed to digest otp code", "error", err)
		return nil, goerror.NewServer(err)
	}

	ch := entity.Challenge{
		ID:          id,
		Destination: in.Destination,
		CodeDigest:  string(digest),
		Purpose:     in.Purpose,
		OwnerID:     in.OwnerID,
		SubjectID:   in.SubjectID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(in.Purpose.TTL()),
	}

	if err := s.store.Replace(ctx, ch); err != nil {
		s.release(ctx, cdKey)
		slog.ErrorContext(ctx, "failed to store otp challenge", "challenge_id", id, "purpose", in.Purpose.String(), "error", err)
		return nil, goerror.NewServer(err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.notifierTimeout())
	err = s.notifier.Send(sendCtx, entity.Delivery{
		Destination: ch.Destination,
		Purpose:     ch.Purpose,
		Code:        code,
		ExpiresAt:   ch.ExpiresAt,
	})
	cancel()
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver otp code", "challenge_id", id, "purpose", in.Purpose.String(), "error", err)
		s.rollback(ctx, ch, cdKey)
		return nil, entity.ErrDeliveryFailed
	}

	if err := s.limiter.Record(ctx, cdKey); err != nil {
		slog.WarnContext(ctx, "failed to record otp cooldown", "challenge_id", id, "error", err)
	}

	s.incrStat(ctx, ch.Purpose, entity.CounterIssued)
	s.metrics.issued.Add(ctx, 1, purposeAttr(ch.Purpose))

	return &entity.Issued{ChallengeRef: ch.ID, ExpiresAt: ch.ExpiresAt}, nil
}

// rollback undoes a challenge whose code never reached the destination. It
// runs detached from ctx so a cancelled request still cleans up.
func (s *Usecase) rollback(ctx context.Context, ch entity.Challenge, cdKey string) {
	ctx = context.WithoutCancel(ctx)

	if _, err := s.store.DeleteIfID(ctx, ch.Key(), ch.ID); err != nil {
		slog.ErrorContext(ctx, "failed to delete undelivered otp challenge", "challenge_id", ch.ID, "error", err)
	}
	s.release(ctx, cdKey)

	s.incrStat(ctx, ch.Purpose, entity.CounterDeliveryFailed)
	s.metrics.fail(ctx, ch.Purpose, entity.CounterDeliveryFailed)
}

func (s *Usecase) release(ctx context.Context, cdKey string) {
	if err := s.limiter.Release(ctx, cdKey); err != nil {
		slog.WarnContext(ctx, "failed to release otp cooldown", "error", err)
	}
}

// rateLimited tells the caller how long the cooldown still holds. A failed
// lookup only drops the hint.
func (s *Usecase) rateLimited(ctx context.Context, cdKey string) error {
	remaining, err := s.limiter.Remaining(ctx, cdKey)
	if err != nil {
		slog.WarnContext(ctx, "failed to read otp cooldown", "error", err)
		return entity.ErrRateLimited
	}
	return goerror.WithRetryAfter(entity.ErrRateLimited, remaining)
}
