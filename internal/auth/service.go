package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingToken is returned when a connection presents no token.
	ErrMissingToken = errors.New("missing token")
	// ErrUnauthorized is returned when a token does not resolve to a user.
	ErrUnauthorized = errors.New("unauthorized")
)

// Service resolves connection tokens to user identities.
type Service struct {
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(jwtConfig *JWTConfig) *Service {
	return &Service{jwtConfig: jwtConfig}
}

// Authenticate returns the user id a token was issued for.
// Any failure is reported as ErrMissingToken or wraps ErrUnauthorized.
func (s *Service) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	claims, err := ValidateToken(s.jwtConfig, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", fmt.Errorf("%w: token has no user id", ErrUnauthorized)
	}
	return userID, nil
}

// IssueToken mints a token for userID, used by the CLI and tests.
func (s *Service) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	token, err := GenerateToken(s.jwtConfig, userID, ttl)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}
