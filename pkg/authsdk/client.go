package authsdk

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// RefreshCookieName is the cookie that carries the refresh token.
const RefreshCookieName = "refreshToken"

// SDKClient is a client for the geoadmin authentication service.
// Its cookie jar holds the refresh token between calls, the way a browser
// would.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Headers are added to every request, e.g. X-Forwarded-For when the
	// service sits behind a proxy.
	Headers map[string]string
}

// NewSDKClient creates a new auth service client with its own cookie jar.
func NewSDKClient(baseURL string) *SDKClient {
	jar, _ := cookiejar.New(nil) // only errors on a bad PublicSuffixList
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}
}

// WithClientIP returns a copy that reports ip as the caller's address via
// X-Forwarded-For. The copy shares the cookie jar.
func (c *SDKClient) WithClientIP(ip string) *SDKClient {
	cp := *c
	cp.Headers = make(map[string]string, len(c.Headers)+1)
	for k, v := range c.Headers {
		cp.Headers[k] = v
	}
	cp.Headers["X-Forwarded-For"] = ip
	return &cp
}

// RefreshCookie returns the refresh token currently held in the jar.
func (c *SDKClient) RefreshCookie() string {
	if c.HTTPClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(c.BaseURL + "/")
	if err != nil {
		return ""
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == RefreshCookieName {
			return ck.Value
		}
	}
	return ""
}

// Authenticate logs in and returns a Session that refreshes its access
// token on demand.
func (c *SDKClient) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.Login(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return &Session{client: c, accessToken: resp.Token, User: resp.User}, nil
}
