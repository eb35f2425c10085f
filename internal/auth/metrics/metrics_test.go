package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsCount(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.LoginAttempt(OutcomeSuccess)
	m.LoginAttempt(OutcomeSuccess)
	m.LoginAttempt(OutcomeInvalid)
	m.RateLimited()
	m.GeoLookup("ipapi", "ok", 10*time.Millisecond)
	m.Registration(OutcomeConflict)
	m.TokenRefresh(OutcomeSuccess)

	require.Equal(t, 2.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.loginAttempts.WithLabelValues(OutcomeInvalid)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitRejects))
	require.Equal(t, 1.0, testutil.ToFloat64(m.geoLookups.WithLabelValues("ipapi", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues(OutcomeConflict)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.tokenRefreshes.WithLabelValues(OutcomeSuccess)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.LoginAttempt(OutcomeSuccess)
		m.RateLimited()
		m.GeoLookup("ipinfo", "error", time.Second)
		m.Registration(OutcomeSuccess)
		m.TokenRefresh(OutcomeError)
	})
}
