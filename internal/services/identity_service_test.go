package services_test

import (
	"testing"
	"time"

	"nutriregistry/internal/models"
	"nutriregistry/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_IssueAndValidate(t *testing.T) {
	svc := services.NewIdentityService("test_jwt_secret", time.Hour)

	token, err := svc.IssueToken("ALICE")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	identity, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, models.Identity("ALICE"), identity)
}

func TestIdentityService_RejectsForeignSecret(t *testing.T) {
	issuer := services.NewIdentityService("other_secret", time.Hour)
	token, err := issuer.IssueToken("ALICE")
	require.NoError(t, err)

	svc := services.NewIdentityService("test_jwt_secret", time.Hour)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestIdentityService_RejectsExpiredToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   "ALICE",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)

	svc := services.NewIdentityService("test_jwt_secret", time.Hour)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestIdentityService_RejectsMissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)

	svc := services.NewIdentityService("test_jwt_secret", time.Hour)
	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)

	_, err = svc.IssueToken("")
	assert.Error(t, err)
}
