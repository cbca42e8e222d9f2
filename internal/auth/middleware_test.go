package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/conduit-api/internal/httputil"
	"github.com/redmonkez12/conduit-api/internal/user"
)

type fakeUserGetter struct {
	users map[uuid.UUID]*user.User
	err   error
	calls int
}

func (f *fakeUserGetter) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func newGateFixture(t *testing.T) (*Middleware, *fakeUserGetter, *user.User) {
	t.Helper()

	u := &user.User{ID: uuid.New(), Email: "a@example.com", Username: "a"}
	users := &fakeUserGetter{users: map[uuid.UUID]*user.User{u.ID: u}}

	m := NewMiddleware(NewBearerExtractor("Token"), newTestTokens(t), users)
	m.now = func() time.Time { return tokenNow }

	return m, users, u
}

func issue(t *testing.T, subject string, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	token, err := newTestTokens(t).Issue(subject, issuedAt, ttl)
	require.NoError(t, err)
	return token
}

func TestResolveUser(t *testing.T) {
	m, users, u := newGateFixture(t)
	token := issue(t, u.ID.String(), tokenNow, time.Hour)

	got, gotToken, err := m.ResolveUser(context.Background(), "Token "+token)
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Equal(t, token, gotToken)
	assert.Equal(t, 1, users.calls)
}

func TestResolveUser_FailsBeforeLookup(t *testing.T) {
	m, users, u := newGateFixture(t)
	valid := issue(t, u.ID.String(), tokenNow, time.Hour)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing header", "", ErrAuthMissing},
		{"wrong scheme", "Bearer " + valid, ErrWrongScheme},
		{"expired", "Token " + issue(t, u.ID.String(), tokenNow.Add(-3*time.Hour), time.Hour), ErrTokenExpired},
		{"garbage", "Token garbage", ErrTokenMalformed},
		{"subject not a uuid", "Token " + issue(t, "42", tokenNow, time.Hour), ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.ResolveUser(context.Background(), tt.header)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsUnauthenticated(err))
		})
	}

	assert.Zero(t, users.calls)
}

func TestResolveUser_LookupFailures(t *testing.T) {
	m, users, _ := newGateFixture(t)

	_, _, err := m.ResolveUser(context.Background(), "Token "+issue(t, uuid.NewString(), tokenNow, time.Hour))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.False(t, IsUnauthenticated(err))

	storeErr := errors.New("connection refused")
	users.err = storeErr
	_, _, err = m.ResolveUser(context.Background(), "Token "+issue(t, uuid.NewString(), tokenNow, time.Hour))
	assert.ErrorIs(t, err, ErrAuthInternal)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, errors.Is(err, ErrUserNotFound))
}

func TestRequireAuth(t *testing.T) {
	m, users, u := newGateFixture(t)
	valid := issue(t, u.ID.String(), tokenNow, time.Hour)
	unknown := issue(t, uuid.NewString(), tokenNow, time.Hour)

	tests := []struct {
		name       string
		header     string
		storeErr   error
		wantStatus int
		wantCode   string
	}{
		{"valid", "Token " + valid, nil, http.StatusOK, ""},
		{"missing header", "", nil, http.StatusForbidden, httputil.CodeNotAuthenticated},
		{"wrong scheme", "Bearer " + valid, nil, http.StatusForbidden, httputil.CodeNotAuthenticated},
		{"tampered", "Token " + valid + "x", nil, http.StatusForbidden, httputil.CodeNotAuthenticated},
		{"unknown user", "Token " + unknown, nil, http.StatusNotFound, httputil.CodeUserNotFound},
		{"store failure", "Token " + valid, errors.New("db down"), http.StatusInternalServerError, httputil.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users.err = tt.storeErr

			var reached bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				current, ok := UserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, u.ID, current.ID)

				token, ok := TokenFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, valid, token)

				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/user", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			m.RequireAuth(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, reached)

			if tt.wantCode != "" {
				var body httputil.ErrorResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
				assert.NotContains(t, body.Error, "db down")
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = TokenFromContext(context.Background())
	assert.False(t, ok)
}
