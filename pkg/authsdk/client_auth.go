package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Register creates a regular user account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	out, _, err := do[RegisterResponse](ctx, c, call{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   req,
		accept: []int{http.StatusCreated},
	})
	return out, err
}

// Login authenticates with email and password. On success the refresh
// cookie is stored in the client's jar.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	out, _, err := do[LoginResponse](ctx, c, call{method: http.MethodPost, path: "/auth/login", body: req})
	return out, err
}

// Refresh trades the jar's refresh cookie for a new access token. The
// server rotates the cookie at the same time.
func (c *SDKClient) Refresh(ctx context.Context) (*RefreshResponse, error) {
	out, _, err := do[RefreshResponse](ctx, c, call{method: http.MethodPost, path: "/auth/refresh"})
	return out, err
}

// Logout clears the refresh cookie.
func (c *SDKClient) Logout(ctx context.Context) error {
	_, _, err := do[MessageResponse](ctx, c, call{method: http.MethodPost, path: "/auth/logout"})
	return err
}

// Profile fetches the user behind accessToken, login history included.
func (c *SDKClient) Profile(ctx context.Context, accessToken string) (*ProfileResponse, error) {
	out, _, err := do[ProfileResponse](ctx, c, call{method: http.MethodGet, path: "/profile", bearer: accessToken})
	return out, err
}

// ResetRateLimit clears the login window for ip. Requires an admin token.
func (c *SDKClient) ResetRateLimit(ctx context.Context, accessToken, ip string) error {
	_, _, err := do[struct{}](ctx, c, call{
		method: http.MethodDelete,
		path:   "/admin/ratelimit/" + url.PathEscape(ip),
		bearer: accessToken,
		accept: []int{http.StatusNoContent},
	})
	return err
}
