package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() *JWTConfig {
	return &JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testConfig()

	token, err := GenerateToken(cfg, "u1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateToken(cfg, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "u1" || claims.Username != "Alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	cfg := testConfig()

	other := testConfig()
	other.Secret = []byte("another-secret")
	forged, _ := GenerateToken(other, "u1", "Alice")

	wrongAud := testConfig()
	wrongAud.Audience = "elsewhere"
	misaddressed, _ := GenerateToken(wrongAud, "u1", "Alice")

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString(cfg.Secret)

	cases := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", forged},
		{"wrong audience", misaddressed},
		{"expired", expired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateToken(cfg, tc.token); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	cfg := testConfig()
	token, _ := GenerateToken(cfg, "u1", "Alice")

	if _, err := Authorize(&JWTConfig{}, "u1", ""); err != nil {
		t.Fatalf("disabled auth should accept: %v", err)
	}
	if _, err := Authorize(cfg, "u1", ""); err != nil {
		t.Fatalf("optional token should accept missing token: %v", err)
	}
	if _, err := Authorize(cfg, "u2", token); !errors.Is(err, ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
	if claims, err := Authorize(cfg, "u1", token); err != nil || claims.Username != "Alice" {
		t.Fatalf("valid token rejected: %v", err)
	}

	cfg.Required = true
	if _, err := Authorize(cfg, "u1", ""); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}
