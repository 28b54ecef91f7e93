package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/oncoward/ward-api/pkg/config"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("mật-khẩu-tốt"), bcrypt.MinCost)
	require.NoError(t, err)
	return NewAuthService(config.AuthConfig{
		Username:     "ward",
		PasswordHash: string(hash),
		JWTSecret:    "test_secret",
		TokenExpiry:  time.Hour,
	}, zap.NewNop())
}

func TestLoginIssuesValidToken(t *testing.T) {
	auth := newAuthFixture(t)

	token, expiresAt, err := auth.Login("ward", "mật-khẩu-tốt")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	subject, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ward", subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := newAuthFixture(t)

	_, _, err := auth.Login("ward", "sai mật khẩu")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, _, err = auth.Login("someone-else", "mật-khẩu-tốt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	auth := newAuthFixture(t)
	_, err := auth.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAuthDisabledWithoutHash(t *testing.T) {
	auth := NewAuthService(config.AuthConfig{Username: "ward"}, zap.NewNop())
	assert.False(t, auth.Enabled())
	_, _, err := auth.Login("ward", "anything")
	require.Error(t, err)
}
