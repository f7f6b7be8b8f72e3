package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokens_IssueAndVerify(t *testing.T) {
	secret := "test-secret"
	issuer, verifier := NewJWTTokens(secret)

	token, err := issuer.Issue("user-123", "u@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)

	// Parse and verify claims directly
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
}

func TestJWTTokens_VerifyRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewJWTTokens("secret-a")
	_, verifier := NewJWTTokens("secret-b")

	token, err := issuer.Issue("user-123", "u@example.com", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTTokens_VerifyRejectsExpired(t *testing.T) {
	issuer, verifier := NewJWTTokens("secret")

	token, err := issuer.Issue("user-123", "u@example.com", -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestJWTTokens_VerifyRejectsGarbage(t *testing.T) {
	_, verifier := NewJWTTokens("secret")
	_, err := verifier.Verify("not-a-token")
	require.Error(t, err)
}
