package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// ErrTTLTooShort is returned by Issue for lifetimes under one second. exp is
// encoded in whole seconds, so a shorter ttl could expire at the issue instant.
var ErrTTLTooShort = errors.New("token ttl must be at least one second")

// JWTService signs and verifies compact HMAC JWTs carrying a subject and an
// expiry. Only the configured algorithm is accepted on verification; the alg
// header of an incoming token is never trusted. No clock leeway is applied.
type JWTService struct {
	key    []byte
	method *jwt.SigningMethodHMAC
}

func NewJWTService(secretKey []byte, algorithm string) (*JWTService, error) {
	if len(secretKey) == 0 {
		return nil, errors.New("secret key must not be empty")
	}

	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return &JWTService{key: secretKey, method: method}, nil
}

// Issue creates a token for subject that expires at now+ttl, truncated to
// whole seconds. ttl must be at least one second.
func (s *JWTService) Issue(subject string, now time.Time, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject must not be empty")
	}
	if ttl < time.Second {
		return "", fmt.Errorf("%w, got %s", ErrTTLTooShort, ttl)
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify validates the token against now and returns its subject. Errors
// are ErrTokenMalformed, ErrTokenBadSignature or ErrTokenExpired.
func (s *JWTService) Verify(tokenStr string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return "", classifyTokenError(err)
	}

	if claims.Subject == "" {
		return "", ErrTokenMalformed
	}

	return claims.Subject, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
