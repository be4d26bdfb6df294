package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T, key string) *authService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService("test-secret", time.Hour, string(hash), nil).(*authService)
}

func TestIssueAndValidateToken(t *testing.T) {
	s := newTestAuth(t, "dev-key")
	ctx := context.Background()

	tokens, err := s.IssueToken(ctx, TokenRequest{UserID: "u1", APIKey: "dev-key"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := s.ValidateToken(ctx, tokens.Token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.Subject != "u1" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestIssueTokenRejectsWrongKey(t *testing.T) {
	s := newTestAuth(t, "dev-key")
	_, err := s.IssueToken(context.Background(), TokenRequest{UserID: "u1", APIKey: "guess"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v", err)
	}

	unconfigured := NewAuthService("secret", time.Hour, "", nil)
	if _, err := unconfigured.IssueToken(context.Background(), TokenRequest{UserID: "u1", APIKey: "dev-key"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("without hash: got %v", err)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestAuth(t, "dev-key")
	ctx := context.Background()
	tokens, _ := s.IssueToken(ctx, TokenRequest{UserID: "u1", APIKey: "dev-key"})

	other := newTestAuth(t, "dev-key")
	other.jwtSecret = "different"
	if _, err := other.ValidateToken(ctx, tokens.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign signature: got %v", err)
	}

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.ValidateToken(ctx, tokens.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v", err)
	}
	if _, err := s.ValidateToken(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: got %v", err)
	}
}

func TestHashAPIKey(t *testing.T) {
	hash, err := HashAPIKey("k")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte("k")) != nil {
		t.Error("hash does not match key")
	}
}
