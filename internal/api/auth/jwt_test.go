package auth

import (
	"testing"
	"time"
)

func TestJWTService_GenerateAndValidate(t *testing.T) {
	secret := []byte("test-secret-key-32-bytes-long!!")
	svc := NewJWTService(secret, 15*time.Minute)

	token, err := svc.GenerateToken("  Alice ")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.Editor != "Alice" {
		t.Errorf("Editor = %q, want %q", claims.Editor, "Alice")
	}
	if claims.Subject != "Alice" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "Alice")
	}
	if claims.Issuer != "rostergrid" {
		t.Errorf("Issuer = %q, want rostergrid", claims.Issuer)
	}
}

func TestJWTService_EmptyEditor(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-key-32-bytes-long!!"), time.Minute)

	if _, err := svc.GenerateToken("   "); err == nil {
		t.Error("expected error for blank editor")
	}
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-key-32-bytes-long!!"), 15*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt-token"},
		{"wrong-segments", "a.b"},
		{"invalid-signature", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJlZGl0b3IiOiJ0ZXN0In0.invalid"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tc.token); err == nil {
				t.Error("expected error for invalid token")
			}
		})
	}
}

func TestJWTService_DifferentSecret(t *testing.T) {
	ttl := 15 * time.Minute
	svc1 := NewJWTService([]byte("secret-one-32-bytes-long!!!!!!!"), ttl)
	svc2 := NewJWTService([]byte("secret-two-32-bytes-long!!!!!!!"), ttl)

	token, err := svc1.GenerateToken("Bob")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := svc2.ValidateToken(token); err == nil {
		t.Error("expected error validating token with different secret")
	}
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := NewJWTService([]byte("test-secret-key-32-bytes-long!!"), -time.Minute)

	token, err := svc.GenerateToken("Carol")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if _, err := svc.ValidateToken(token); err == nil {
		t.Error("expected error for expired token")
	}
}
