package service

import (
	"student_risk_backend/internal/config"
	"student_risk_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Login(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	svc := NewAuthService(
		config.AuthConfig{Enabled: true, Username: "counselor", PasswordHash: hash},
		config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	)

	token, err := svc.Login("counselor", "correct horse")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "counselor", claims.Username)
	assert.Equal(t, util.RoleOperator, claims.Role)

	_, err = svc.Login("counselor", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login("someone", "correct horse")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestAuthService_UpdateConfig(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{}, config.JWTConfig{Secret: "a"})
	assert.False(t, svc.Enabled())

	svc.UpdateConfig(config.AuthConfig{Enabled: true}, config.JWTConfig{Secret: "b"})
	assert.True(t, svc.Enabled())
	assert.Equal(t, "b", svc.Secret())
}
