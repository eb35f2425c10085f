package authsdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
)

// Session is a logged-in user. When the access token is rejected it
// refreshes once through the client's cookie and retries.
type Session struct {
	client *SDKClient

	// User as returned by the login call.
	User User

	mu          sync.RWMutex
	accessToken string
}

// AccessToken returns the current access token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// Refresh obtains a new access token using the refresh cookie.
func (s *Session) Refresh(ctx context.Context) error {
	resp, err := s.client.Refresh(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = resp.Token
	s.mu.Unlock()
	return nil
}

// Profile fetches the current user's profile.
func (s *Session) Profile(ctx context.Context) (*ProfileResponse, error) {
	resp, err := s.client.Profile(ctx, s.AccessToken())
	if !isUnauthorized(err) {
		return resp, err
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.client.Profile(ctx, s.AccessToken())
}

// Logout clears the refresh cookie and forgets the access token.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
