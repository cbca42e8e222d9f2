package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := newTestHasher()

	hash, err := h.Hash("p")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)
	assert.True(t, h.Verify("p", hash))
	assert.False(t, h.Verify("q", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := newTestHasher()

	first, err := h.Hash("same password")
	require.NoError(t, err)
	second, err := h.Hash("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same password", first))
	assert.True(t, h.Verify("same password", second))
}

func TestPasswordHasher_Bounds(t *testing.T) {
	h := newTestHasher()

	_, err := h.Hash("")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = h.Hash(strings.Repeat("a", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := h.Hash(strings.Repeat("a", MaxPasswordLength))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("a", MaxPasswordLength), hash))
}

func TestPasswordHasher_VerifiesLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	h := newTestHasher()
	assert.True(t, h.Verify("hunter2", string(legacy)))
	assert.False(t, h.Verify("hunter3", string(legacy)))
}

func TestPasswordHasher_MalformedHashNeverMatches(t *testing.T) {
	h := newTestHasher()

	hashes := []string{
		"",
		"plain-text-password",
		"$argon2id$",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=0,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=4194304,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2g",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$!!!",
		"$argon2id$v=19$m=8192,t=1,p=1$$aGFzaGhhc2g",
		"$2b$not-a-bcrypt-hash",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
	}

	for _, hash := range hashes {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("password", hash), hash)
		})
	}
}
