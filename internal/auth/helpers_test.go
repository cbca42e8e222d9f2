package auth

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/conduit-api/internal/database/dbtest"
	"github.com/redmonkez12/conduit-api/internal/logging"
	"github.com/redmonkez12/conduit-api/internal/user"
)

const testSecret = "test-secret-key"

// Cheap argon2id parameters keep the suite fast.
var testHasherParams = HasherParams{
	Time:    1,
	Memory:  8 * 1024,
	Threads: 1,
	KeyLen:  32,
	SaltLen: 16,
}

func newTestHasher() *PasswordHasher {
	return NewPasswordHasher(testHasherParams)
}

func newTestTokens(t *testing.T) *JWTService {
	t.Helper()
	tokens, err := NewJWTService([]byte(testSecret), "HS256")
	require.NoError(t, err)
	return tokens
}

func discardLogger() *logging.Logger {
	return logging.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestService returns an account service over a fresh in-memory database.
func newTestService(t *testing.T) (*Service, *user.Repository) {
	t.Helper()
	users := user.NewRepository(dbtest.New(t))
	svc := NewService(users, newTestHasher(), newTestTokens(t), discardLogger(), time.Hour)
	return svc, users
}
