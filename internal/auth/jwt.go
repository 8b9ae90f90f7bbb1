package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when a token is required but absent.
	ErrMissingToken = errors.New("missing token")
	// ErrIdentityMismatch is returned when a token was minted for another identity.
	ErrIdentityMismatch = errors.New("token subject does not match user id")
)

// DefaultTTL is the lifetime of tokens minted by GenerateToken.
const DefaultTTL = 24 * time.Hour

// Claims binds a user identity (the subject) to a display name.
type Claims struct {
	Username string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	// Required rejects register_user without a token.
	Required bool
}

// Enabled reports whether tokens can be checked at all.
func (c *JWTConfig) Enabled() bool {
	return c != nil && len(c.Secret) > 0
}

// GenerateToken creates a signed token for identity.
func GenerateToken(cfg *JWTConfig, identity, username string) (string, error) {
	if !cfg.Enabled() {
		return "", errors.New("jwt secret is not configured")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// ValidateToken parses and validates a JWT token.
func ValidateToken(cfg *JWTConfig, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("invalid issuer")
	}
	if cfg.Audience != "" && !slices.Contains(claims.Audience, cfg.Audience) {
		return nil, fmt.Errorf("invalid audience")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	return claims, nil
}

// Authorize checks the token presented with a register_user request.
// With auth disabled every request passes. A present token must be valid
// and minted for identity.
func Authorize(cfg *JWTConfig, identity, tokenString string) (*Claims, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	if tokenString == "" {
		if cfg.Required {
			return nil, ErrMissingToken
		}
		return nil, nil
	}
	claims, err := ValidateToken(cfg, tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Subject != identity {
		return nil, ErrIdentityMismatch
	}
	return claims, nil
}
