package auth

import (
	"testing"
	"time"

	"github.com/erazemk/trgovina/internal/model"
)

func testUser() *model.User {
	return &model.User{ID: 1, Username: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
}

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, issued, err := GenerateToken(secret, testUser())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 1 {
		t.Errorf("expected user_id 1, got %d", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("expected email 'admin@example.com', got %q", claims.Email)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("expected JTI %q, got %q", issued.ID, claims.ID)
	}
}

func TestTokensHaveUniqueJTI(t *testing.T) {
	_, a, _ := GenerateToken("s", testUser())
	_, b, _ := GenerateToken("s", testUser())
	if a.ID == b.ID {
		t.Errorf("expected distinct JTIs, both %q", a.ID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, _ := GenerateToken("secret1", testUser())

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _, _ := GenerateToken(secret, testUser())
	claims, _ := ValidateToken(secret, token)

	diff := time.Now().Add(TokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
