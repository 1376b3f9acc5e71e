package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/model"
)

const secret = "test-secret"

func TestPasswordHash(t *testing.T) {
	hash, err := auth.HashPassword("testpass123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "testpass123" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !auth.CheckPassword(hash, "testpass123") {
		t.Error("correct password rejected")
	}
	if auth.CheckPassword(hash, "wrongpassword") {
		t.Error("wrong password accepted")
	}
}

func TestPasswordHashSalted(t *testing.T) {
	a, _ := auth.HashPassword("same-password")
	b, _ := auth.HashPassword("same-password")
	if a == b {
		t.Error("two hashes of the same password should differ")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := auth.MakeToken("test-uid", model.RoleDoctor, secret, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}

	claims, err := auth.ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "test-uid" {
		t.Errorf("uid mismatch: %s", claims.UserID)
	}
	if claims.Role != model.RoleDoctor {
		t.Errorf("role mismatch: %s", claims.Role)
	}

	diff := time.Until(claims.ExpiresAt.Time)
	if diff < 7*24*time.Hour-time.Minute || diff > 7*24*time.Hour+time.Minute {
		t.Errorf("expected ~7d expiry, got %v", diff)
	}
}

func TestExpiredToken(t *testing.T) {
	tok, err := auth.MakeToken("uid", model.RoleAdmin, secret, -time.Minute)
	if err != nil {
		t.Fatalf("make token: %v", err)
	}
	if _, err := auth.ParseToken(tok, secret); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestAlgorithmConfusion(t *testing.T) {
	tok, _ := auth.MakeToken("uid", model.RoleAdmin, secret, time.Hour)
	if _, err := auth.ParseToken(tok, secret); err != nil {
		t.Fatalf("valid token failed: %v", err)
	}

	// wrong secret fails
	if _, err := auth.ParseToken(tok, "wrong-secret"); err == nil {
		t.Fatal("expected error for wrong secret")
	}

	// garbage token fails
	if _, err := auth.ParseToken("not.a.token", secret); err == nil {
		t.Fatal("expected error for garbage token")
	}

	// unsigned token fails
	none := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "uid", Role: model.RoleAdmin})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := auth.ParseToken(raw, secret); err == nil {
		t.Fatal("expected error for alg=none token")
	}
}
