package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	tokenString, err := manager.GenerateToken(42, "alice", true)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := manager.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	other := NewJWTManager("another-secret", 1, 7)

	tokenString, err := manager.GenerateToken(1, "alice", false)
	require.NoError(t, err)

	_, err = other.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestVerifyTokenMalformed(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)
	_, err := manager.VerifyToken("not-a-jwt")
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", 1, 7)

	refresh, err := manager.GenerateRefreshToken(7, "bob", false)
	require.NoError(t, err)

	claims, err := manager.VerifyToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.False(t, claims.IsAdmin)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}
