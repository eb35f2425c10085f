package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/pkg/authsdk"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
)

const readinessTimeout = 2 * time.Second

// Pinger is an optional dependency checked by /readyz, e.g. the shared
// rate limit cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// healthProbe answers both probes from the same start time and version.
type healthProbe struct {
	started time.Time
	version string
	db      store.Store
	cache   Pinger
}

func (p healthProbe) report(status string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(p.started).Round(time.Second).String(),
		Version: p.version,
		Checks:  checks,
	}
}

// probe returns "ok" or the failure text for a dependency.
func probe(ctx context.Context, dep Pinger) string {
	if err := dep.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// Live godoc
//
//	@Summary		Liveness probe
//	@Description	Reports that the process is serving. Never touches dependencies.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (p healthProbe) Live(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, p.report("ok", nil))
}

// Ready godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the user database and, when configured, the shared rate limit cache.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"all dependencies reachable"
//	@Failure		503	{object}	authsdk.HealthResponse	"at least one dependency failed"
//	@Router			/readyz [get].
func (p healthProbe) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := &authsdk.HealthChecks{Database: probe(ctx, PingerFunc(p.db.Ping))}
	if p.cache != nil {
		checks.Cache = probe(ctx, p.cache)
	}

	status, code := "ok", http.StatusOK
	if checks.Database != "ok" || (checks.Cache != "" && checks.Cache != "ok") {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	httpx.WriteJSON(w, code, p.report(status, checks))
}
