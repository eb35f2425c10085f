// Package geo resolves a client address to a best-effort city and country.
package geo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/metrics"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTimeout = 3 * time.Second

	Unknown = "Unknown"

	LocalCity    = "Local Development"
	LocalCountry = "Development Environment"
)

var (
	UnknownLocation = domain.Location{City: Unknown, Country: Unknown}
	LocalLocation   = domain.Location{City: LocalCity, Country: LocalCountry}
)

var errLookupFailed = errors.New("geo: lookup failed")

// Provider is one upstream geolocation API.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, client *http.Client, ip netip.Addr) (domain.Location, error)
}

// Enricher tries Primary then Fallback and never fails: anything that goes
// wrong collapses to UnknownLocation.
type Enricher struct {
	Primary  Provider
	Fallback Provider
	Client   *http.Client
	Metrics  *metrics.Metrics
}

// NewHTTPClient returns a client with an overall per-call timeout whose
// transport emits client spans.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewEnricher wires the ipapi.co primary and ipinfo.io fallback. Empty base
// URLs select the public endpoints.
func NewEnricher(primaryURL, fallbackURL string, timeout time.Duration, m *metrics.Metrics) *Enricher {
	return &Enricher{
		Primary:  &IPAPI{BaseURL: primaryURL},
		Fallback: &IPInfo{BaseURL: fallbackURL},
		Client:   NewHTTPClient(timeout),
		Metrics:  m,
	}
}

// Resolve maps ip to a location. Local and private addresses short-circuit
// without any network I/O, as do values that are not addresses at all.
func (e *Enricher) Resolve(ctx context.Context, ip string) domain.Location {
	ip = strings.TrimSpace(ip)
	if strings.EqualFold(ip, "localhost") {
		return LocalLocation
	}

	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return UnknownLocation
	}
	addr = addr.Unmap()
	if IsLocal(addr) {
		return LocalLocation
	}

	client := e.Client
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}

	l := slogx.FromContext(ctx)
	for _, p := range []Provider{e.Primary, e.Fallback} {
		if p == nil {
			continue
		}

		start := time.Now()
		loc, err := p.Lookup(ctx, client, addr)
		took := time.Since(start)
		if err != nil {
			e.Metrics.GeoLookup(p.Name(), "error", took)
			l.Warn("geolocation lookup failed",
				slog.String("provider", p.Name()),
				slog.Any("error", err),
			)
			continue
		}

		e.Metrics.GeoLookup(p.Name(), "ok", took)
		return location(loc).withDefaults()
	}

	return UnknownLocation
}

// IsLocal reports whether addr belongs to a loopback, private, link-local or
// unspecified range.
func IsLocal(addr netip.Addr) bool {
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
