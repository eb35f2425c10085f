package service

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/pkg/jwtx"
)

const DefaultIssuer = "geoadmin-auth"

// TokenService issues and checks the access/refresh pair. Each class has its
// own secret, so a leaked access secret cannot mint refresh tokens.
type TokenService struct {
	AccessSigner    jwtx.Signer
	RefreshSigner   jwtx.Signer
	AccessVerifier  jwtx.Verifier
	RefreshVerifier jwtx.Verifier
	Issuer          string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration

	// Now is the issuance clock; tests replace it.
	Now func() time.Time
}

// NewTokenService wires HS256 signers and verifiers for both secrets. It
// refuses empty, short or identical secrets.
func NewTokenService(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(accessSecret) > 0 && bytes.Equal(accessSecret, refreshSecret) {
		return nil, ErrSameSecrets
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	accessSigner, err := jwtx.NewHMACSigner(accessSecret)
	if err != nil {
		return nil, fmt.Errorf("access secret: %w", err)
	}
	refreshSigner, err := jwtx.NewHMACSigner(refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("refresh secret: %w", err)
	}

	svc := &TokenService{
		AccessSigner:  accessSigner,
		RefreshSigner: refreshSigner,
		Issuer:        issuer,
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		Now:           time.Now,
	}

	// Verifiers read the same clock as issuance.
	svc.AccessVerifier, err = jwtx.NewHMACVerifier(accessSecret, jwtx.VerifyOptions{
		Issuer: issuer,
		Type:   jwtx.TypeAccess,
		Now:    svc.now,
	})
	if err != nil {
		return nil, fmt.Errorf("access secret: %w", err)
	}
	svc.RefreshVerifier, err = jwtx.NewHMACVerifier(refreshSecret, jwtx.VerifyOptions{
		Issuer: issuer,
		Type:   jwtx.TypeRefresh,
		Now:    svc.now,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh secret: %w", err)
	}

	return svc, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Issue signs a fresh access and refresh token for user.
func (s *TokenService) Issue(user domain.User) (domain.TokenPair, error) {
	now := s.now()

	access := jwtx.NewClaims(user.ID, user.Email, user.Role.String(), jwtx.TypeAccess, s.Issuer, s.AccessTTL, now)
	accessToken, err := s.AccessSigner.Sign(access)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwtx.NewClaims(user.ID, user.Email, user.Role.String(), jwtx.TypeRefresh, s.Issuer, s.RefreshTTL, now)
	refreshToken, err := s.RefreshSigner.Sign(refresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresIn:  s.AccessTTL,
		RefreshExpiresIn: s.RefreshTTL,
	}, nil
}

// VerifyAccess checks an access token. Every failure is jwtx.ErrInvalidToken.
func (s *TokenService) VerifyAccess(token string) (jwtx.Claims, error) {
	return s.AccessVerifier.Verify(token)
}

// VerifyRefresh checks a refresh token. Every failure is ErrInvalidRefresh
// wrapping jwtx.ErrInvalidToken.
func (s *TokenService) VerifyRefresh(token string) (jwtx.Claims, error) {
	claims, err := s.RefreshVerifier.Verify(token)
	if err != nil {
		return jwtx.Claims{}, errors.Join(ErrInvalidRefresh, err)
	}
	return claims, nil
}
