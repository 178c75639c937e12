package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	authenticator := NewJWTAuthenticator("test-secret", "recipe-sharing", "recipe-sharing", time.Hour)
	userID := uuid.New()

	token, expiresAt, err := authenticator.GenerateToken(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	parsed, err := authenticator.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTAuthenticator("secret-one", "recipe-sharing", "recipe-sharing", time.Hour)
	verifier := NewJWTAuthenticator("secret-two", "recipe-sharing", "recipe-sharing", time.Hour)

	token, _, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongAudience(t *testing.T) {
	issuer := NewJWTAuthenticator("test-secret", "other-app", "recipe-sharing", time.Hour)
	verifier := NewJWTAuthenticator("test-secret", "recipe-sharing", "recipe-sharing", time.Hour)

	token, _, err := issuer.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	authenticator := NewJWTAuthenticator("test-secret", "recipe-sharing", "recipe-sharing", -time.Minute)

	token, _, err := authenticator.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = authenticator.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	authenticator := NewJWTAuthenticator("test-secret", "recipe-sharing", "recipe-sharing", time.Hour)

	_, err := authenticator.ValidateToken("not-a-token")
	assert.Error(t, err)
}
