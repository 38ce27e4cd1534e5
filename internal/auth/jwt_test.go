package auth

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

const testSecret = "unit-test-secret"

func TestToken_roundTrip(t *testing.T) {
	tok, err := GenerateToken(testSecret, "user-42", RoleStaff, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, RoleStaff, claims.Role)
}

func TestToken_roleIsOptional(t *testing.T) {
	tok, err := GenerateToken(testSecret, "user-7", "", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.UserID)
	assert.Empty(t, claims.Role)
}

func TestParseToken_rejectsExpired(t *testing.T) {
	tok, err := GenerateToken(testSecret, "user-42", "", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, tok)
	assert.Error(t, err)
}

func TestParseToken_rejectsWrongSecret(t *testing.T) {
	tok, err := GenerateToken(testSecret, "user-42", "", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("another-secret", tok)
	assert.Error(t, err)
}

func TestParseToken_rejectsGarbage(t *testing.T) {
	_, err := ParseToken(testSecret, "not.a.token")
	assert.Error(t, err)
}
