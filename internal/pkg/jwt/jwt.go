package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("jwt: HS512 signing key must be at least 64 bytes")

	// ErrTokenExpired is returned when the access token has expired.
	ErrTokenExpired = errors.New("jwt: token has expired")

	// ErrInvalidToken is returned when the token is malformed, forged or its
	// subject does not match the user it claims.
	ErrInvalidToken = errors.New("jwt: invalid token")
)

// JWT issues and checks access tokens.
type JWT interface {
	Generate(uid int64, email string) (AccessToken, error)
	Verify(tokenStr string) (Claims, error)
}

// AccessToken is a signed token and the instant its exp claim points at.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL is the access token lifetime.
	TTL time.Duration
	// Leeway tolerates clock skew between replicas when checking exp, nbf and iat.
	Leeway time.Duration
	Clock  clocker
	// UUID generates the jti claim.
	UUID generator
}

// Claims carries the registered claims plus the signed-in user.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id,string"`
	UserEmail string `json:"user_email"`
}

// GetAuth returns the claims of the authenticated caller, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores the caller claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
