package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyPrefix = "identity:refresh:"

// Session keeps refresh token digests in redis, each pointing at its user.
type Session struct {
	client redis.UniversalClient
	ins    instrument.Instrumentation
}

func NewSession(client redis.UniversalClient, ins instrument.Instrumentation) *Session {
	return &Session{client: client, ins: ins}
}

func (s *Session) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (s *Session) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Session) CreateSession(ctx context.Context, digest string, userID int64, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Set(ctx, keyPrefix+digest, userID, ttl).Err()
	return err
}

func (s *Session) SessionOwner(ctx context.Context, digest string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "SessionOwner")
	defer func() { s.endSpan(span, err) }()

	raw, err := s.client.Get(ctx, keyPrefix+digest).Result()
	if errors.Is(err, redis.Nil) {
		err = goerror.ErrNotFound
		return 0, err
	}
	if err != nil {
		return 0, err
	}

	return strconv.ParseInt(raw, 10, 64)
}

// rotateScript swaps the old digest for the new one only while the old one
// still belongs to the same user, so a refresh token rotates once.
var rotateScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
  return 0
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RotateSession returns goerror.ErrNotFound when the old digest was already
// rotated, revoked or expired.
func (s *Session) RotateSession(ctx context.Context, oldDigest, newDigest string, userID int64, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "RotateSession")
	defer func() { s.endSpan(span, err) }()

	n, err := rotateScript.Run(ctx, s.client,
		[]string{keyPrefix + oldDigest, keyPrefix + newDigest},
		strconv.FormatInt(userID, 10), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		err = goerror.ErrNotFound
	}
	return err
}

var revokeScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RevokeSession drops the digest when it belongs to userID.
func (s *Session) RevokeSession(ctx context.Context, digest string, userID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer func() { s.endSpan(span, err) }()

	n, err := revokeScript.Run(ctx, s.client, []string{keyPrefix + digest}, strconv.FormatInt(userID, 10)).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
