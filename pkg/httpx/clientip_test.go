package httpx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestFrom(addr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	return req
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"remote addr", nil, "192.168.1.1"},
		{"x-forwarded-for first hop", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": " 203.0.113.2 "}, "203.0.113.2"},
		{"x-client-ip", map[string]string{"X-Client-IP": "203.0.113.3"}, "203.0.113.3"},
		{"x-real-ip beats x-client-ip", map[string]string{"X-Real-IP": "203.0.113.2", "X-Client-IP": "203.0.113.3"}, "203.0.113.2"},
		{"blank forwarded header ignored", map[string]string{"X-Forwarded-For": " , 10.0.0.1"}, "192.168.1.1"},
		{"ipv6 canonicalised", map[string]string{"X-Forwarded-For": "2001:DB8:0:0::5"}, "2001:db8::5"},
		{"non-address kept verbatim", map[string]string{"X-Real-IP": "unknown"}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom("192.168.1.1:12345")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientIP(req))
			require.Equal(t, tt.want, httpx.ByIP(req))
		})
	}

	t.Run("remote addr without port", func(t *testing.T) {
		require.Equal(t, "pipe", httpx.ClientIP(requestFrom("pipe")))
	})
}

func TestJoinKeys(t *testing.T) {
	key := httpx.JoinKeys(":", httpx.ByUser, httpx.ByIP)

	req := requestFrom("192.168.1.1:12345")
	require.Equal(t, "192.168.1.1", key(req))

	req = req.WithContext(context.WithValue(req.Context(), httpx.CtxKeyUserID, "alice"))
	require.Equal(t, "alice:192.168.1.1", key(req))
}
