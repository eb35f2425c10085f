package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token lifetimes. Access tokens are short lived because nothing
// revokes them; refresh tokens live in an HttpOnly cookie.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token types carried in the "typ" claim so one class can never stand in
// for the other, even if the secrets were ever configured the same.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the identity asserted by both token classes.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the user at issuance.
	Email string `json:"email"`

	// Role at issuance ("admin" or "user"). It is not re-read from storage
	// while the token is valid.
	Role string `json:"role"`

	// Type is TypeAccess or TypeRefresh.
	Type string `json:"typ"`
}

// NewClaims builds claims for subject valid from now until now+ttl.
func NewClaims(subject, email, role, typ, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Email: email,
		Role:  role,
		Type:  typ,
	}
}
