package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casaflow/pm/internal/models"
)

const testSecret = "test-secret-key"

func TestJWT_RoundTrip(t *testing.T) {
	tokenString, err := GenerateJWT("user-123", models.RoleTenant, testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := ValidateJWT(tokenString, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, models.RoleTenant, claims.Role)
	assert.Equal(t, "user-123", claims.Subject)
}

func TestJWT_WrongSecret(t *testing.T) {
	tokenString, err := GenerateJWT("user-123", models.RoleOwner, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateJWT(tokenString, "a-different-secret")
	assert.Error(t, err)
}

func TestJWT_Expired(t *testing.T) {
	tokenString, err := GenerateJWT("user-123", models.RoleTenant, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ValidateJWT(tokenString, testSecret)
	assert.Error(t, err)
}

func TestJWT_Garbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token", testSecret)
	assert.Error(t, err)
}
