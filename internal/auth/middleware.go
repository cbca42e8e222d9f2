package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/redmonkez12/conduit-api/internal/httputil"
	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey  ContextKey = "current_user"
	TokenContextKey ContextKey = "access_token"
)

// Middleware is the auth gate for protected routes. Checks run cheapest
// first: header shape, then signature, then the user lookup.
type Middleware struct {
	extractor BearerExtractor
	tokens    TokenService
	users     UserGetter
	now       func() time.Time
}

func NewMiddleware(extractor BearerExtractor, tokens TokenService, users UserGetter) *Middleware {
	return &Middleware{
		extractor: extractor,
		tokens:    tokens,
		users:     users,
		now:       time.Now,
	}
}

// ResolveUser authenticates an Authorization header value and returns the
// user it refers to together with the raw token.
//
// Failures: IsUnauthenticated(err) for header and token problems,
// ErrUserNotFound when the subject no longer exists, and ErrAuthInternal
// (wrapping the cause) when the store lookup fails.
func (m *Middleware) ResolveUser(ctx context.Context, header string) (*user.User, string, error) {
	token, err := m.extractor.Extract(header)
	if err != nil {
		return nil, "", err
	}

	subject, err := m.tokens.Verify(token, m.now())
	if err != nil {
		return nil, "", err
	}

	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, "", ErrTokenMalformed
	}

	u, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", fmt.Errorf("%w: %w", ErrAuthInternal, err)
	}

	return u, token, nil
}

// RequireAuth rejects requests without a valid token with 403, requests
// whose user no longer exists with 404, and store failures with 500.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "auth.RequireAuth")
		defer span.End()

		logger := logging.GetLoggerFromContext(ctx)

		u, token, err := m.ResolveUser(ctx, r.Header.Get("Authorization"))
		if err != nil {
			span.SetAttributes(attribute.String("auth.failure", err.Error()))

			switch {
			case IsUnauthenticated(err):
				logger.Warn("authentication failed", "reason", err.Error())
				httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeNotAuthenticated, http.StatusForbidden)
			case errors.Is(err, ErrUserNotFound):
				logger.Warn("authentication failed: token subject not found")
				httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			default:
				span.RecordError(err)
				span.SetStatus(codes.Error, "resolve current user")
				logger.Error("authentication failed: internal error", "error", err.Error())
				httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			}
			return
		}

		span.SetAttributes(attribute.String("user.id", u.ID.String()))
		reqLogger := logger.WithFields(map[string]any{"user_id": u.ID.String()})

		ctx = logging.NewContext(ContextWithUser(ctx, u, token), reqLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContextWithUser returns a copy of ctx carrying the authenticated user and
// the token it presented.
func ContextWithUser(ctx context.Context, u *user.User, token string) context.Context {
	ctx = context.WithValue(ctx, UserContextKey, u)
	return context.WithValue(ctx, TokenContextKey, token)
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok && u != nil
}

// TokenFromContext extracts the presented access token from the request context
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenContextKey).(string)
	return token, ok
}
