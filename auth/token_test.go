package auth

import (
	"testing"
	"time"

	"qrono/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	config.JWT_SECRET = "test-secret"
	token, err := IssueToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
}

func TestTokenExpiry(t *testing.T) {
	config.JWT_SECRET = "test-secret"

	// Issued just inside the validity window - still accepted
	fresh, err := IssueTokenAt(7, time.Now().Add(-TokenValidity+time.Minute))
	require.NoError(t, err)
	userID, err := ParseToken(fresh)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)

	// Issued exactly one validity window ago - rejected
	stale, err := IssueTokenAt(7, time.Now().Add(-TokenValidity))
	require.NoError(t, err)
	_, err = ParseToken(stale)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	config.JWT_SECRET = "test-secret"
	token, err := IssueToken(42)
	require.NoError(t, err)

	config.JWT_SECRET = "another-secret"
	defer func() { config.JWT_SECRET = "test-secret" }()
	_, err = ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	config.JWT_SECRET = "test-secret"
	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		_, err := ParseToken(tokenString)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
