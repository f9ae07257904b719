package auth

import (
	"dockpanel/internal/entity"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewManagerAndTokenLifecycle(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Minute*30)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}

	user := &entity.DbIdentity{ID: "6f1c7b8e-2b7a-4a8e-9a37-0d7f1d0f2a11", Email: "user@example.com", Role: entity.RoleAdmin}
	token, expiresAt, err := mgr.GenerateToken(user)
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatal("expected future expiry time")
	}

	claims, err := mgr.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error parsing token: %v", err)
	}
	if claims.UserID != user.ID || claims.Subject != user.ID {
		t.Fatalf("expected subject %s, got %s/%s", user.ID, claims.UserID, claims.Subject)
	}
	if !strings.EqualFold(claims.Email, user.Email) {
		t.Fatalf("expected email %s, got %s", user.Email, claims.Email)
	}
	if claims.Role != user.Role {
		t.Fatalf("expected role %s, got %s", user.Role, claims.Role)
	}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", "", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	mgr, err := NewManager("test-secret", "issuer", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error creating manager: %v", err)
	}
	mgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := mgr.GenerateToken(&entity.DbIdentity{ID: "id-1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("unexpected error generating token: %v", err)
	}

	mgr.now = time.Now
	if _, err := mgr.ParseToken(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	mgr, _ := NewManager("test-secret", "issuer", time.Hour)
	other, _ := NewManager("other-secret", "issuer", time.Hour)
	wrongIssuer, _ := NewManager("test-secret", "someone-else", time.Hour)

	user := &entity.DbIdentity{ID: "id-1", Email: "a@example.com"}
	tests := []struct {
		name   string
		issuer *Manager
	}{
		{name: "different secret", issuer: other},
		{name: "different issuer", issuer: wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tt.issuer.GenerateToken(user)
			if err != nil {
				t.Fatalf("unexpected error generating token: %v", err)
			}
			if _, err := mgr.ParseToken(token); err == nil {
				t.Fatal("expected parse failure")
			}
		})
	}

	if _, err := mgr.ParseToken("not-a-jwt"); err == nil {
		t.Fatal("expected parse failure for malformed token")
	}
}
