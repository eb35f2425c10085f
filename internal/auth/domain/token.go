package domain

import "time"

// TokenPair is what a login or refresh hands back: the access token goes in
// the response body and the refresh token in an HttpOnly cookie.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}
