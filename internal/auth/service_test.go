package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestAuthService(t *testing.T) *Service {
	t.Helper()

	return NewService(&JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
	})
}

func signRaw(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthenticate_RoundTrip(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.IssueToken("u1", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	userID, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("expected token to authenticate, got %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected user u1, got %q", userID)
	}
}

func TestAuthenticate_RejectsMissingToken(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.Authenticate(""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	svc := newTestAuthService(t)
	exp := time.Now().Add(time.Minute).Unix()

	cases := map[string]string{
		"garbage":        "not-a-jwt",
		"wrong secret":   signRaw(t, "other", jwt.MapClaims{"userId": "u1", "iss": "test", "aud": "test", "exp": exp}),
		"expired":        signRaw(t, "test-secret-change-me", jwt.MapClaims{"userId": "u1", "iss": "test", "aud": "test", "exp": time.Now().Add(-time.Minute).Unix()}),
		"wrong issuer":   signRaw(t, "test-secret-change-me", jwt.MapClaims{"userId": "u1", "iss": "evil", "aud": "test", "exp": exp}),
		"wrong audience": signRaw(t, "test-secret-change-me", jwt.MapClaims{"userId": "u1", "iss": "test", "aud": "other", "exp": exp}),
		"no user":        signRaw(t, "test-secret-change-me", jwt.MapClaims{"iss": "test", "aud": "test", "exp": exp}),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Authenticate(token); !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthenticate_FallsBackToSubject(t *testing.T) {
	svc := NewService(&JWTConfig{Secret: []byte("s")})
	token := signRaw(t, "s", jwt.MapClaims{"sub": "u7"})

	userID, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("expected subject token to authenticate, got %v", err)
	}
	if userID != "u7" {
		t.Fatalf("expected user u7, got %q", userID)
	}
}

func TestIssueToken_RequiresUser(t *testing.T) {
	svc := newTestAuthService(t)

	if _, err := svc.IssueToken("", time.Minute); err == nil {
		t.Fatalf("expected error for empty user id")
	}
}
