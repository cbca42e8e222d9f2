package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/conduit-api/internal/user"
)

func strPtr(s string) *string { return &s }

func TestService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	registered, token, err := svc.Register(ctx, RegisterInput{
		Email:    "a@example.com",
		Username: "a",
		Password: "p",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, registered.ID)
	assert.NotEqual(t, "p", registered.PasswordHash)

	subject, err := svc.tokens.Verify(token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, registered.ID.String(), subject)

	stored, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, stored.ID)

	loggedIn, loginToken, err := svc.Login(ctx, "a@example.com", "p")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, loggedIn.ID)
	assert.NotEmpty(t, loginToken)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, users := newTestService(t)

	first, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "b", Password: "q"})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	stored, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "a", stored.Username)
}

func TestService_RegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		in      RegisterInput
		wantErr error
	}{
		{"missing email", RegisterInput{Username: "a", Password: "p"}, ErrEmailRequired},
		{"bad email", RegisterInput{Email: "not-an-email", Username: "a", Password: "p"}, ErrInvalidEmailFormat},
		{"display name form", RegisterInput{Email: "A <a@example.com>", Username: "a", Password: "p"}, ErrInvalidEmailFormat},
		{"missing username", RegisterInput{Email: "a@example.com", Username: "  ", Password: "p"}, ErrUsernameRequired},
		{"missing password", RegisterInput{Email: "a@example.com", Username: "a"}, ErrPasswordRequired},
		{"long password", RegisterInput{Email: "a@example.com", Username: "a", Password: strings.Repeat("x", 73)}, ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsInvalidInput(err))
		})
	}
}

func TestService_LoginFailuresLookAlike(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)

	for _, tc := range []struct{ email, password string }{
		{"a@example.com", "wrong"},
		{"nobody@example.com", "p"},
		{"", "p"},
		{"a@example.com", ""},
	} {
		_, _, err := svc.Login(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
}

func TestService_LoginUnknownEmailStillHashes(t *testing.T) {
	svc, _ := newTestService(t)
	require.Empty(t, svc.dummyHash)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "p")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.True(t, strings.HasPrefix(svc.dummyHash, "$argon2id$v=19$m=8192,t=1,p=1$"), svc.dummyHash)
	assert.False(t, svc.hasher.Verify("p", svc.dummyHash))
}

func TestService_UpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	current, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, current, UpdateInput{
		Username: strPtr("renamed"),
		Bio:      strPtr("hello"),
		Password: strPtr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Username)
	assert.Equal(t, "a@example.com", updated.Email)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, "hello", *updated.Bio)
	assert.Nil(t, updated.Image)

	_, _, err = svc.Login(ctx, "a@example.com", "p")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "a@example.com", "new-password")
	assert.NoError(t, err)

	cleared, err := svc.UpdateUser(ctx, updated, UpdateInput{Bio: strPtr("")})
	require.NoError(t, err)
	require.NotNil(t, cleared.Bio)
	assert.Empty(t, *cleared.Bio)
}

func TestService_UpdateUserNoFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	current, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)

	got, err := svc.UpdateUser(ctx, current, UpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, current, got)
}

func TestService_UpdateUserEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	a, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Username: "b", Password: "p"})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, a, UpdateInput{Email: strPtr("b@example.com")})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	same, err := svc.UpdateUser(ctx, a, UpdateInput{Email: strPtr("a@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", same.Email)

	moved, err := svc.UpdateUser(ctx, a, UpdateInput{Email: strPtr("c@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", moved.Email)
}

func TestService_UpdateUserValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	current, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Username: "a", Password: "p"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		in      UpdateInput
		wantErr error
	}{
		{"empty email", UpdateInput{Email: strPtr("")}, ErrEmailRequired},
		{"bad email", UpdateInput{Email: strPtr("nope")}, ErrInvalidEmailFormat},
		{"empty username", UpdateInput{Username: strPtr("")}, ErrUsernameRequired},
		{"empty password", UpdateInput{Password: strPtr("")}, ErrPasswordRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateUser(ctx, current, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_UpdateDeletedUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	ghost := &user.User{ID: uuid.New(), Email: "ghost@example.com", Username: "ghost"}
	_, err := svc.UpdateUser(ctx, ghost, UpdateInput{Bio: strPtr("boo")})
	assert.ErrorIs(t, err, user.ErrNotFound)
}
