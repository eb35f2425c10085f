package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// call describes one round trip to the auth service.
type call struct {
	method string
	path   string
	body   any
	bearer string
	// accept lists the statuses whose body is decoded rather than turned
	// into an *APIError. Empty means 200 only.
	accept []int
}

func (rc call) accepts(status int) bool {
	if len(rc.accept) == 0 {
		return status == http.StatusOK
	}
	for _, s := range rc.accept {
		if s == status {
			return true
		}
	}
	return false
}

// exchange sends rc and returns the status and the fully read body. The
// client's fixed Headers are applied last so WithClientIP wins.
func (c *SDKClient) exchange(ctx context.Context, rc call) (int, []byte, error) {
	var payload io.Reader
	if rc.body != nil {
		buf, err := json.Marshal(rc.body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, rc.method, c.BaseURL+rc.path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rc.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+rc.bearer)
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, data, nil
}

// do runs rc and decodes an accepted response into T. Any other status
// becomes an *APIError. The returned status lets callers tell accepted
// statuses apart.
func do[T any](ctx context.Context, c *SDKClient, rc call) (*T, int, error) {
	status, data, err := c.exchange(ctx, rc)
	if err != nil {
		return nil, status, err
	}
	if !rc.accepts(status) {
		return nil, status, parseErrorResponse(status, data)
	}

	out := new(T)
	if len(data) == 0 {
		return out, status, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, status, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, status, nil
}
