package httpx

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the originating client address. Proxy headers are
// consulted in order X-Forwarded-For (first hop), X-Real-IP, X-Client-IP
// before falling back to the socket peer. Parseable addresses come back in
// canonical form so every spelling of one address shares a limiter key.
//
// The headers are taken at face value; deploy behind a proxy that
// overwrites them.
func ClientIP(r *http.Request) string {
	return canonicalIP(rawClientIP(r))
}

func rawClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	for _, h := range []string{"X-Real-IP", "X-Client-IP"} {
		if v := strings.TrimSpace(r.Header.Get(h)); v != "" {
			return v
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// canonicalIP formats s the way netip does, or returns it untouched when it
// is not an address.
func canonicalIP(s string) string {
	if addr, err := netip.ParseAddr(s); err == nil {
		return addr.String()
	}
	return s
}

// KeyFunc picks the bucket a request is charged to. An empty key means the
// request is not limited.
type KeyFunc func(*http.Request) string

// ByIP keys requests by client address.
func ByIP(r *http.Request) string { return ClientIP(r) }

// ByUser keys requests by the authenticated subject, or "" before
// AuthnMiddleware has run.
func ByUser(r *http.Request) string {
	id, _ := r.Context().Value(CtxKeyUserID).(string)
	return id
}

// JoinKeys concatenates the non-empty keys of fns with sep.
func JoinKeys(sep string, fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}
