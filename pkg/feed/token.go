package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrShortSecret is returned for signing secrets under 32 bytes.
var ErrShortSecret = errors.New("feed: token secret must be at least 32 characters")

// DefaultTokenTTL bounds the lifetime of each request token.
const DefaultTokenTTL = time.Minute

// TokenSigner mints a short-lived HS256 bearer token per feed request.
type TokenSigner struct {
	secret  []byte
	subject string
	ttl     time.Duration
	now     func() time.Time
}

// NewTokenSigner creates a signer. subject identifies this map host to the
// feed backend.
func NewTokenSigner(secret, subject string, ttl time.Duration) (*TokenSigner, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{
		secret:  []byte(secret),
		subject: subject,
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// Sign returns a fresh token.
func (s *TokenSigner) Sign() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   s.subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign feed token: %w", err)
	}
	return token, nil
}
