package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type upstream struct {
	*httptest.Server
	hits atomic.Int32
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()

	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.Close)
	return u
}

func newTestEnricher(primary, fallback *upstream) *Enricher {
	return &Enricher{
		Primary:  &IPAPI{BaseURL: primary.URL},
		Fallback: &IPInfo{BaseURL: fallback.URL},
		Client:   &http.Client{Timeout: time.Second},
	}
}

func TestResolveLocalShortCircuits(t *testing.T) {
	t.Parallel()

	primary := newUpstream(t, http.StatusOK, `{"city":"Sydney","country_name":"Australia"}`)
	fallback := newUpstream(t, http.StatusOK, `{"city":"Sydney","country":"AU"}`)
	e := newTestEnricher(primary, fallback)

	for _, ip := range []string{"127.0.0.1", "192.168.1.5", "10.1.2.3", "172.16.0.9", "::1", "fe80::1", "localhost", "::ffff:127.0.0.1", "0.0.0.0"} {
		t.Run(ip, func(t *testing.T) {
			require.Equal(t, LocalLocation, e.Resolve(context.Background(), ip))
		})
	}

	require.Zero(t, primary.hits.Load())
	require.Zero(t, fallback.hits.Load())
}

func TestResolveUnparseable(t *testing.T) {
	t.Parallel()

	primary := newUpstream(t, http.StatusOK, `{}`)
	fallback := newUpstream(t, http.StatusOK, `{}`)
	e := newTestEnricher(primary, fallback)

	require.Equal(t, UnknownLocation, e.Resolve(context.Background(), "not-an-ip"))
	require.Equal(t, UnknownLocation, e.Resolve(context.Background(), ""))
	require.Zero(t, primary.hits.Load())
}

func TestResolveProviders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		primaryCode   int
		primaryBody   string
		fallbackCode  int
		fallbackBody  string
		want          string
		wantCountry   string
		wantFallbacks int32
	}{
		{
			name:        "primary succeeds",
			primaryCode: http.StatusOK, primaryBody: `{"city":"Sydney","country_name":"Australia"}`,
			fallbackCode: http.StatusOK, fallbackBody: `{}`,
			want: "Sydney", wantCountry: "Australia", wantFallbacks: 0,
		},
		{
			name:        "primary missing fields default to unknown",
			primaryCode: http.StatusOK, primaryBody: `{"country_name":"Australia"}`,
			fallbackCode: http.StatusOK, fallbackBody: `{}`,
			want: Unknown, wantCountry: "Australia", wantFallbacks: 0,
		},
		{
			name:        "primary error flag uses fallback",
			primaryCode: http.StatusOK, primaryBody: `{"error":true,"reason":"RateLimited"}`,
			fallbackCode: http.StatusOK, fallbackBody: `{"city":"Berlin","country":"DE"}`,
			want: "Berlin", wantCountry: "DE", wantFallbacks: 1,
		},
		{
			name:        "primary non-2xx uses fallback",
			primaryCode: http.StatusTooManyRequests, primaryBody: `{}`,
			fallbackCode: http.StatusOK, fallbackBody: `{"city":"Berlin","country":"DE"}`,
			want: "Berlin", wantCountry: "DE", wantFallbacks: 1,
		},
		{
			name:        "primary garbage uses fallback",
			primaryCode: http.StatusOK, primaryBody: `<html>`,
			fallbackCode: http.StatusOK, fallbackBody: `{"city":"Berlin","country":"DE"}`,
			want: "Berlin", wantCountry: "DE", wantFallbacks: 1,
		},
		{
			name:        "both fail",
			primaryCode: http.StatusInternalServerError, primaryBody: `{}`,
			fallbackCode: http.StatusInternalServerError, fallbackBody: `{}`,
			want: Unknown, wantCountry: Unknown, wantFallbacks: 1,
		},
		{
			name:        "fallback error object counts as failure",
			primaryCode: http.StatusBadGateway, primaryBody: `{}`,
			fallbackCode: http.StatusOK, fallbackBody: `{"error":{"title":"Wrong ip"}}`,
			want: Unknown, wantCountry: Unknown, wantFallbacks: 1,
		},
		{
			name:        "fallback bogon counts as failure",
			primaryCode: http.StatusBadGateway, primaryBody: `{}`,
			fallbackCode: http.StatusOK, fallbackBody: `{"ip":"100.64.0.1","bogon":true}`,
			want: Unknown, wantCountry: Unknown, wantFallbacks: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			primary := newUpstream(t, tc.primaryCode, tc.primaryBody)
			fallback := newUpstream(t, tc.fallbackCode, tc.fallbackBody)
			e := newTestEnricher(primary, fallback)

			got := e.Resolve(context.Background(), "8.8.8.8")
			require.Equal(t, tc.want, got.City)
			require.Equal(t, tc.wantCountry, got.Country)
			require.Equal(t, int32(1), primary.hits.Load())
			require.Equal(t, tc.wantFallbacks, fallback.hits.Load())
		})
	}
}

func TestResolveTimeout(t *testing.T) {
	t.Parallel()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)

	e := &Enricher{
		Primary:  &IPAPI{BaseURL: slow.URL},
		Fallback: &IPInfo{BaseURL: slow.URL},
		Client:   &http.Client{Timeout: 50 * time.Millisecond},
	}

	start := time.Now()
	got := e.Resolve(context.Background(), "1.1.1.1")
	require.Equal(t, UnknownLocation, got)
	require.Less(t, time.Since(start), time.Second)
}

func TestIPAPIRequestPath(t *testing.T) {
	t.Parallel()

	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"city":"X","country_name":"Y"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := (&IPAPI{BaseURL: srv.URL + "/"}).Lookup(context.Background(), srv.Client(), netip.MustParseAddr("8.8.4.4"))
	require.NoError(t, err)
	require.Equal(t, "/8.8.4.4/json/", path)
}
