package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "lena@example.com", RoleAdmin)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "lena@example.com", claims.Email)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerificationTokenCarriesNoRole(t *testing.T) {
	token, err := GenerateVerificationToken(42, "lena@example.com")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Empty(t, claims.Role)
	assert.Equal(t, int64(42), claims.UserID)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(42, "lena@example.com", RoleMember)
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}
