package tokenstore

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims the client displays. The
// signature is not verified: the server remains the only authority.
type Claims struct {
	Subject   string
	Role      string
	Phone     string
	ExpiresAt time.Time
}

type accessClaims struct {
	Role  string `json:"role"`
	Phone string `json:"phone"`
	jwt.RegisteredClaims
}

// ParseClaims decodes token without verifying it.
func ParseClaims(token string) (Claims, error) {
	var c accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("parse access token: %w", err)
	}

	out := Claims{Subject: c.Subject, Role: c.Role, Phone: c.Phone}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the token's exp lies before now. Tokens without
// exp never expire.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}
