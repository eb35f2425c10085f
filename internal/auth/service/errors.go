package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation         = errors.New("validation_failed")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrRateLimited        = errors.New("rate_limited")
	ErrSameSecrets        = errors.New("access and refresh secrets must differ")
)

// ValidationError is a client input problem with a message safe to show.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// LoginError wraps every non-throttled login failure with the attempts the
// caller has left in the current window.
type LoginError struct {
	Err               error
	RemainingAttempts int
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed (%d attempts left): %v", e.RemainingAttempts, e.Err)
}

func (e *LoginError) Unwrap() error { return e.Err }

// RateLimitedError means the address used up its window.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return "too many login attempts until " + e.ResetAt.UTC().Format(time.RFC1123)
}

func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

// RetryAfter is the whole seconds until the window resets, at least 1.
func (e *RateLimitedError) RetryAfter(now time.Time) int {
	secs := int(e.ResetAt.Sub(now).Seconds() + 0.999)
	return max(secs, 1)
}
