package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	principal := uuid.New()

	token, err := tm.IssueToken(principal, "dr@clinic.test", RoleProvider)
	require.NoError(t, err)

	claims, err := tm.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, principal, claims.Principal)
	assert.Equal(t, "dr@clinic.test", claims.Email)
	assert.Equal(t, RoleProvider, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	token, err := tm.IssueToken(uuid.New(), "p@clinic.test", RolePatient)
	require.NoError(t, err)

	other := NewTokenManager("different-secret", time.Hour)
	_, err = other.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", -time.Minute)
	token, err := tm.IssueToken(uuid.New(), "p@clinic.test", RolePatient)
	require.NoError(t, err)

	_, err = tm.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbageInput(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Hour)
	_, err := tm.VerifyToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	h := NewHasher(4) // minimal cost keeps the test fast

	hash, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, h.Verify("correct horse battery staple", hash))
	assert.False(t, h.Verify("wrong password", hash))
}
