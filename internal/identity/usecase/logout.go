package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
)

type LogoutInput struct {
	RefreshToken string
}

// Logout revokes the caller's refresh token. Unknown tokens are ignored.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return entity.ErrAuthRequired
	}

	// opaque refresh tokens are 64 hex chars
	if len(in.RefreshToken) != 64 {
		return nil
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	revoked, err := s.repoSession.RevokeSession(ctx, string(tokenHash), clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to revoke refresh token", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}
	if !revoked {
		slog.WarnContext(ctx, "logout with unknown refresh token", "user_id", clm.UserID)
	}

	return nil
}
