package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAudience is the audience tag embedded in every access token.
const DefaultAudience = "grademind:auth"

// Token codec failures. Callers outside the codec see these translated into
// domain errors by AuthService.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenMalformed   = errors.New("token malformed")
	ErrTokenSignature   = errors.New("token signature invalid")
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// Clock is the time source used for issuing and validating tokens.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// TokenCodec issues and verifies HS256 access tokens carrying the user id as
// subject. The secret is shared process-wide; there is no rotation.
type TokenCodec struct {
	secret   []byte
	audience string
	clock    Clock
}

// NewTokenCodec returns a codec for secret. An empty audience falls back to
// DefaultAudience and a nil clock to SystemClock.
func NewTokenCodec(secret, audience string, clock Clock) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("token codec: signing secret is required")
	}
	if audience == "" {
		audience = DefaultAudience
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &TokenCodec{secret: []byte(secret), audience: audience, clock: clock}, nil
}

// Issue signs a token for userID that expires lifetime from now.
func (c *TokenCodec) Issue(userID int64, lifetime time.Duration) (string, error) {
	return c.IssueAt(userID, c.clock.Now(), lifetime)
}

// IssueAt signs a token as if issued at issuedAt.
func (c *TokenCodec) IssueAt(userID int64, issuedAt time.Time, lifetime time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  jwt.ClaimStrings{c.audience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(lifetime)),
		ID:        uuid.NewString(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, audience and expiry and returns the subject.
func (c *TokenCodec) Verify(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, jwt.ErrTokenSignatureInvalid
			}
			return c.secret, nil
		},
		jwt.WithAudience(c.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.clock.Now),
	)
	if err != nil {
		return 0, classifyJWTError(err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Subject == "" {
		return 0, fmt.Errorf("%w: subject %q", ErrTokenMalformed, claims.Subject)
	}
	return id, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrAudienceMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
