package auth

import (
	"errors"
	"fmt"
)

// Authorization header errors.
var (
	ErrAuthMissing = errors.New("missing authorization header")
	ErrWrongScheme = errors.New("unexpected authorization scheme")
)

// Token errors. Malformed, bad signature and expired tokens all wrap
// ErrInvalidToken so callers can reject them uniformly.
var (
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenMalformed    = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenBadSignature = fmt.Errorf("%w: bad signature", ErrInvalidToken)
	ErrTokenExpired      = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Gate errors.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrAuthInternal = errors.New("failed to resolve current user")
)

// Credential and account errors.
var (
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooLong    = errors.New("password exceeds maximum length of 72 bytes")
	ErrEmailRequired      = errors.New("email is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrUsernameRequired   = errors.New("username is required")
	ErrInvalidCredentials = errors.New("could not login")
)

// IsUnauthenticated reports whether err means the request carried no usable
// credentials: a missing or malformed header, a wrong scheme, or an invalid token.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrAuthMissing) ||
		errors.Is(err, ErrWrongScheme) ||
		errors.Is(err, ErrInvalidToken)
}

// IsInvalidInput reports whether err is an input validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, ErrPasswordTooLong) ||
		errors.Is(err, ErrEmailRequired) ||
		errors.Is(err, ErrInvalidEmailFormat) ||
		errors.Is(err, ErrUsernameRequired)
}
