package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretBytes is the shortest HMAC secret we accept.
const MinSecretBytes = 16

var (
	ErrEmptySecret = errors.New("jwtx: signing secret is empty")
	ErrWeakSecret  = errors.New("jwtx: signing secret is shorter than 16 bytes")
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HMACSigner signs claims with HS256 and a shared secret.
type HMACSigner struct {
	secret []byte
}

// NewHMACSigner returns a signer for secret. Empty or short secrets are
// rejected so a misconfigured process never starts.
func NewHMACSigner(secret []byte) (*HMACSigner, error) {
	if err := checkSecret(secret); err != nil {
		return nil, err
	}
	return &HMACSigner{secret: secret}, nil
}

func (s *HMACSigner) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HMACSigner) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func checkSecret(secret []byte) error {
	switch {
	case len(secret) == 0:
		return ErrEmptySecret
	case len(secret) < MinSecretBytes:
		return ErrWeakSecret
	}
	return nil
}
