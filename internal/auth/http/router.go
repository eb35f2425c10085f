package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/pkg/httpx"
	"github.com/aussiebroadwan/geoadmin/pkg/jwtx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/aussiebroadwan/geoadmin/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouteLimits are the per-route token buckets layered on top of the login
// window. Login itself is only gated by the session limiter.
type RouteLimits struct {
	Register httpx.RateLimitConfig
	Refresh  httpx.RateLimitConfig
	Profile  httpx.RateLimitConfig
	Admin    httpx.RateLimitConfig
	Health   httpx.RateLimitConfig
	Docs     httpx.RateLimitConfig
}

// DefaultRouteLimits maps routes onto the shared profiles, with
// RATELIMIT_* environment overrides applied.
func DefaultRouteLimits() RouteLimits {
	strict := httpx.ProfileFromEnv("STRICT", httpx.StrictLimit)
	moderate := httpx.ProfileFromEnv("MODERATE", httpx.ModerateLimit)
	lenient := httpx.ProfileFromEnv("LENIENT", httpx.LenientLimit)
	public := httpx.ProfileFromEnv("PUBLIC", httpx.PublicLimit)

	return RouteLimits{
		Register: strict,
		Refresh:  strict,
		Profile:  lenient,
		Admin:    moderate,
		Health:   lenient,
		Docs:     public,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	Sessions *service.SessionService
	Cookie   RefreshCookie
	Limits   RouteLimits

	// Cache is pinged by /readyz when set.
	Cache Pinger

	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Cookie:       RefreshCookie{MaxAge: jwtx.DefaultRefreshTokenTTL},
		Limits:       DefaultRouteLimits(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		otelMiddleware,
		slogx.HTTPMiddleware(r.logger, slogx.WithClientIP(httpx.ClientIP)),
	}

	return r
}

func otelMiddleware(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "auth",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProfile()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/",
		httpx.Chain(httpSwagger.Handler(), httpx.RateLimitByIP(r.Limits.Docs)),
	)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			GeoAdmin Authentication Service API
//	@version		0.1.0
//	@description	Session service for the geo admin panel: registration, password login with per-address throttling, geolocated login history and access/refresh tokens.
//	@description
//	@description				Access tokens are HS256 JWTs sent as a bearer token. Refresh tokens travel only in the HttpOnly refreshToken cookie.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/geoadmin
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/login - gated by the per-address fixed window in SessionService
	r.Mux.Handle("POST /auth/login", &LoginHandler{
		Sessions: r.Sessions,
		Cookie:   r.Cookie,
	})

	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /auth/register",
		httpx.Chain(&RegisterHandler{Sessions: r.Sessions},
			httpx.RateLimitByIP(r.Limits.Register),
		),
	)

	// POST /auth/refresh - strict rate limit by IP
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(&RefreshHandler{Sessions: r.Sessions, Cookie: r.Cookie},
			httpx.RateLimitByIP(r.Limits.Refresh),
		),
	)

	r.Mux.Handle("POST /auth/logout", LogoutHandler(r.Cookie))
}

func (r *Router) registerProfile() {
	secured := httpx.Chain(ProfileHandler(),
		httpx.AuthnMiddleware(r.verifier), // verify JWT (iss/exp/typ)
		LoadUser(r.Sessions),              // 404 when the user is gone
		httpx.RateLimitByUser(r.Limits.Profile),
	)

	r.Mux.Handle("GET /profile", secured)
}

func (r *Router) registerAdmin() {
	secured := httpx.Chain(&RateLimitResetHandler{Sessions: r.Sessions},
		httpx.AuthnMiddleware(r.verifier),
		LoadUser(r.Sessions),
		httpx.RequireRole(domain.RoleAdmin.String()),
		httpx.RateLimitByUser(r.Limits.Admin),
	)

	r.Mux.Handle("DELETE /admin/ratelimit/{ip}", secured)
}

func (r *Router) registerSystem() {
	health := healthProbe{started: r.startTime, version: r.buildVersion, db: r.store, cache: r.Cache}
	// Probes are polled by orchestrators, so they get their own budget.
	probeLimit := httpx.RateLimitByIP(r.Limits.Health)
	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(health.Live), probeLimit))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(health.Ready), probeLimit))

	gatherer := r.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
