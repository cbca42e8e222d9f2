package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/conduit-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
type TokenService interface {
	Issue(subject string, now time.Time, ttl time.Duration) (string, error)
	Verify(token string, now time.Time) (string, error)
}

// UserGetter loads a user by ID. The gate needs nothing else from storage.
type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// UserStore defines the user persistence operations the account service needs.
type UserStore interface {
	UserGetter
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, email, username, passwordHash string) (*user.User, error)
	Update(ctx context.Context, id uuid.UUID, fields user.UpdateFields) (*user.User, error)
}

// RateLimiter counts requests per key. Reset clears the count for key.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
