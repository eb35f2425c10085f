// Package metrics holds the Prometheus collectors for the auth service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeValidation  = "validation"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
	OutcomeConflict    = "conflict"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	loginAttempts    *prometheus.CounterVec
	rateLimitRejects prometheus.Counter
	geoLookups       *prometheus.CounterVec
	geoLatency       *prometheus.HistogramVec
	registrations    *prometheus.CounterVec
	tokenRefreshes   *prometheus.CounterVec
}

// New registers the collectors on reg. Passing prometheus.DefaultRegisterer
// exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loginAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		rateLimitRejects: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_ratelimit_rejections_total",
			Help: "Login attempts rejected by the per-address limiter.",
		}),
		geoLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_geolocation_lookups_total",
			Help: "Geolocation lookups by provider and outcome.",
		}, []string{"provider", "outcome"}),
		geoLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auth_geolocation_latency_seconds",
			Help:    "Latency of geolocation provider calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "Registrations by outcome.",
		}, []string{"outcome"}),
		tokenRefreshes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Refresh token exchanges by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitRejects.Inc()
}

func (m *Metrics) GeoLookup(provider, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.geoLookups.WithLabelValues(provider, outcome).Inc()
	if took > 0 {
		m.geoLatency.WithLabelValues(provider).Observe(took.Seconds())
	}
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}
