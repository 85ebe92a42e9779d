package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	otpentity "github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

// ActivateAccount moves a user from unverified to active once the
// registration code is proved. A second activation is a conflict.
func (s *Usecase) ActivateAccount(ctx context.Context, userID int64) (*otpentity.Account, error) {
	ctx, span := s.startSpan(ctx, "ActivateAccount")
	defer span.End()

	act, err := s.repoDB.ActivateUser(ctx, userID, s.clock.Now())
	if errors.Is(err, goerror.ErrNotFound) {
		if _, gerr := s.repoDB.GetUserByID(ctx, userID); errors.Is(gerr, goerror.ErrNotFound) {
			slog.WarnContext(ctx, "activation for unknown user", "user_id", userID)
			return nil, entity.ErrAccountNotFound
		}

		slog.WarnContext(ctx, "user already activated", "user_id", userID)
		return nil, goerror.ErrConflict
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo activate user", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishActivated(ctx, *act)

	return &otpentity.Account{
		UserID:     act.UserID,
		Email:      act.Email,
		VerifiedAt: act.VerifiedAt,
	}, nil
}

// IssueSession opens a session for an active user: a signed access token and
// an opaque refresh token whose digest is kept in redis.
func (s *Usecase) IssueSession(ctx context.Context, userID int64) (*otpentity.Session, error) {
	ctx, span := s.startSpan(ctx, "IssueSession")
	defer span.End()

	user, err := s.repoDB.GetUserByID(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session for unknown user", "user_id", userID)
		return nil, entity.ErrAccountNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	return s.newSession(ctx, user)
}

func (s *Usecase) newSession(ctx context.Context, user *entity.User) (*otpentity.Session, error) {
	now := s.clock.Now()

	access, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	refToken := s.tokens.Generate()
	refTokenHash, err := s.hmac.Hash(refToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := s.sessionTTL()
	if err := s.repoSession.CreateSession(ctx, string(refTokenHash), user.ID, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to store refresh token", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &otpentity.Session{
		AccessToken:      access.Value,
		RefreshToken:     refToken,
		ExpiresAt:        access.ExpiresAt,
		RefreshExpiresAt: now.Add(ttl),
	}, nil
}
