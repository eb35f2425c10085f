package authsdk

import (
	"context"
	"net/http"
)

// GetLiveness checks if the service process is up.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	out, _, err := do[HealthResponse](ctx, c, call{method: http.MethodGet, path: "/livez"})
	return out, err
}

// GetReadiness checks the service and its dependencies. A degraded service
// answers 503; the decoded checks come back alongside an *APIError so the
// caller can see which dependency failed.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	out, status, err := do[HealthResponse](ctx, c, call{
		method: http.MethodGet,
		path:   "/readyz",
		accept: []int{http.StatusOK, http.StatusServiceUnavailable},
	})
	if err != nil {
		return nil, err
	}
	if status == http.StatusServiceUnavailable {
		return out, &APIError{StatusCode: status, Message: "service not ready: " + out.Status}
	}
	return out, nil
}
