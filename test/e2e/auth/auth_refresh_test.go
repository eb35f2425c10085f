package auth_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRefreshRotatesCookie verifies refresh issues a new access token and a
// new refresh cookie.
func TestRefreshRotatesCookie(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t, nil)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)
	email := registerUser(t, client, "A", "a@b.com")

	session, err := client.Authenticate(ctx, email, userPassword)
	require.NoError(t, err)
	oldCookie := client.RefreshCookie()
	require.NotEmpty(t, oldCookie)

	require.NoError(t, session.Refresh(ctx))
	require.NotEmpty(t, session.AccessToken())
	require.NotEqual(t, oldCookie, client.RefreshCookie(), "refresh cookie should rotate")

	profile, err := session.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, email, profile.Data.Email)
}

// TestLogoutClearsCookie verifies refresh fails after logout.
func TestLogoutClearsCookie(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t, nil)
	defer cleanup()

	ctx := t.Context()
	client := authsdk.NewSDKClient(baseURL)
	email := registerUser(t, client, "A", "a@b.com")

	session, err := client.Authenticate(ctx, email, userPassword)
	require.NoError(t, err)
	require.NoError(t, session.Logout(ctx))
	require.Empty(t, client.RefreshCookie())
	require.Empty(t, session.AccessToken())

	_, err = client.Refresh(ctx)
	apiErr := requireAPIError(t, err, http.StatusUnauthorized)
	require.Equal(t, "Invalid or expired refresh token", apiErr.Message)
}
