package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512SecretBytes = 64

// Symmetric signs and verifies HS512 access tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512SecretBytes {
		return nil, ErrSigningKeyTooShort
	}

	clock := cfg.Clock
	parserOpts := []libJWT.ParserOption{
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithLeeway(cfg.Leeway),
		libJWT.WithTimeFunc(func() time.Time { return clock.Now() }),
	}
	if len(cfg.Audiences) > 0 {
		parserOpts = append(parserOpts, libJWT.WithAudience(cfg.Audiences...))
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     clock,
		uuid:      cfg.UUID,
		parser:    libJWT.NewParser(parserOpts...),
	}, nil
}

// Generate signs an access token for the user.
func (s *Symmetric) Generate(uid int64, email string) (AccessToken, error) {
	now := s.clock.Now()
	exp := now.Add(s.ttl)

	signed, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(uid, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		UserID:    uid,
		UserEmail: email,
	}).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}

	// exp is serialized in whole seconds.
	return AccessToken{Value: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify parses tokenStr and returns its claims.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	_, err := s.parser.ParseWithClaims(tokenStr, &claims, func(*libJWT.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if claims.Subject != strconv.FormatInt(claims.UserID, 10) {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
