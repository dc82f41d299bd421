package services

import (
	"fmt"
	"time"

	"nutriregistry/internal/models"

	"github.com/dgrijalva/jwt-go"
)

// IdentityService issues and verifies the bearer tokens that carry a caller
// identity to the HTTP layer.
type IdentityService struct {
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(jwtSecret string, tokenDurat time.Duration) *IdentityService {
	if tokenDurat <= 0 {
		tokenDurat = 24 * time.Hour
	}
	return &IdentityService{
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDurat,
	}
}

// IssueToken returns a signed token whose subject is identity.
func (s *IdentityService) IssueToken(identity models.Identity) (string, error) {
	if identity == "" {
		return "", fmt.Errorf("cannot issue token for empty identity")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   identity.String(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenDurat).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning the identity it carries.
func (s *IdentityService) ValidateToken(tokenString string) (models.Identity, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}
	return models.Identity(claims.Subject), nil
}
