package auth_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestLoginRateLimit verifies the per-address fixed window on /auth/login
// and that an admin can clear it.
func TestLoginRateLimit(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t, map[string]string{
		"LOGIN_RATE_LIMIT_MAX": "5",
	})
	defer cleanup()

	ctx := t.Context()
	base := authsdk.NewSDKClient(baseURL)
	email := registerUser(t, base, "A", "a@b.com")

	attacker := base.WithClientIP("203.0.113.7")
	for i := range 5 {
		_, err := attacker.Login(ctx, authsdk.LoginRequest{Email: email, Password: "wrong"})
		apiErr := requireAPIError(t, err, http.StatusUnauthorized)
		require.Equal(t, 5-(i+1), apiErr.Remaining(), "attempt %d", i+1)
	}

	// Even the right password is refused once the window is spent.
	_, err := attacker.Login(ctx, authsdk.LoginRequest{Email: email, Password: userPassword})
	apiErr := requireAPIError(t, err, http.StatusTooManyRequests)
	require.True(t, strings.HasPrefix(apiErr.Message, "Too many login attempts. Try again after "), apiErr.Message)
	require.Zero(t, apiErr.Remaining())

	// Other addresses are unaffected.
	_, err = base.WithClientIP("203.0.113.8").Login(ctx, authsdk.LoginRequest{Email: email, Password: userPassword})
	require.NoError(t, err)

	admin, err := base.WithClientIP("198.51.100.1").Authenticate(ctx, adminEmail, adminPassword)
	require.NoError(t, err)
	require.Equal(t, "admin", admin.User.Role)

	require.NoError(t, base.ResetRateLimit(ctx, admin.AccessToken(), "203.0.113.7"))

	_, err = attacker.Login(ctx, authsdk.LoginRequest{Email: email, Password: userPassword})
	require.NoError(t, err)
}

// TestRateLimitResetRequiresAdmin verifies regular users cannot clear windows.
func TestRateLimitResetRequiresAdmin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t, nil)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)
	email := registerUser(t, client, "A", "a@b.com")

	session, err := client.Authenticate(ctx, email, userPassword)
	require.NoError(t, err)

	err = client.ResetRateLimit(ctx, session.AccessToken(), "203.0.113.7")
	requireAPIError(t, err, http.StatusForbidden)
}

// TestRegisterRateLimit verifies the strict token bucket on /auth/register
// with production defaults.
func TestRegisterRateLimit(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t, map[string]string{
		"RATELIMIT_STRICT_REQUESTS": "5",
		"RATELIMIT_STRICT_BURST":    "5",
	})
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)

	var lastErr error
	for i := range 6 {
		_, lastErr = client.Register(ctx, authsdk.RegisterRequest{})
		if i < 5 {
			requireAPIError(t, lastErr, http.StatusBadRequest)
		}
	}
	requireAPIError(t, lastErr, http.StatusTooManyRequests)
}
