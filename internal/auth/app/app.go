package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/audit"
	"github.com/aussiebroadwan/geoadmin/internal/auth/geo"
	httpapi "github.com/aussiebroadwan/geoadmin/internal/auth/http"
	"github.com/aussiebroadwan/geoadmin/internal/auth/metrics"
	"github.com/aussiebroadwan/geoadmin/internal/auth/ratelimit"
	"github.com/aussiebroadwan/geoadmin/internal/auth/service"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store"
	"github.com/aussiebroadwan/geoadmin/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/geoadmin/pkg/jwtx"
	"github.com/aussiebroadwan/geoadmin/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	telemetry *telemetry
	metrics   *metrics.Metrics
	redis     *redis.Client // nil unless REDIS_ADDR is set
	memLimit  *ratelimit.MemoryLimiter
	limiter   ratelimit.Limiter
	audit     audit.Publisher

	// Services
	tokenService     *service.TokenService
	sessionService   *service.SessionService
	bootstrapService *service.BootstrapService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	ctx := context.Background()

	tel, err := setupTelemetry(ctx, cfg.OTLPEndpoint, cfg.OTELSampleRatio, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.telemetry = tel

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initLimiter()
	app.initAudit()

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.seedAdmin(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.memLimit != nil {
		app.memLimit.Start()
	}

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.memLimit != nil {
		app.memLimit.Stop()
	}

	if err := app.audit.Close(); err != nil {
		app.logger.Error("error closing audit publisher", "error", err)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.telemetry.Shutdown(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initLimiter picks the shared Redis window when configured and the
// in-process one otherwise.
func (app *Application) initLimiter() {
	opts := app.cfg.limiterOptions()

	if app.cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})
		app.limiter = ratelimit.NewRedisLimiter(app.redis, opts)
		app.logger.Info("login rate limiter using redis", "addr", app.cfg.RedisAddr)
		return
	}

	app.memLimit = ratelimit.NewMemoryLimiter(opts, app.cfg.LoginRateLimitSweep, app.logger)
	app.limiter = app.memLimit
	app.logger.Info("login rate limiter using process memory")
}

func (app *Application) initAudit() {
	if len(app.cfg.KafkaBrokers) == 0 {
		app.audit = audit.NopPublisher{}
		return
	}
	app.audit = audit.NewKafkaPublisher(app.cfg.KafkaBrokers, app.cfg.KafkaLoginTopic, app.logger)
	app.logger.Info("login events enabled", "topic", app.cfg.KafkaLoginTopic)
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	tokens, err := service.NewTokenService(
		[]byte(app.cfg.AccessSecret),
		[]byte(app.cfg.RefreshSecret),
		app.cfg.Issuer,
		jwtx.DefaultAccessTokenTTL,
		jwtx.DefaultRefreshTokenTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.tokenService = tokens

	app.sessionService = &service.SessionService{
		Store:        app.db,
		Limiter:      app.limiter,
		Tokens:       app.tokenService,
		Geo:          geo.NewEnricher(app.cfg.GeoPrimaryURL, app.cfg.GeoFallbackURL, app.cfg.GeoTimeout, app.metrics),
		Audit:        app.audit,
		Metrics:      app.metrics,
		HistoryLimit: app.cfg.HistoryLimit,
	}
	app.bootstrapService = &service.BootstrapService{Store: app.db}
	return nil
}

func (app *Application) seedAdmin(ctx context.Context) error {
	if app.cfg.AdminEmail == "" {
		return nil
	}

	ctx = slogx.WithContext(ctx, app.logger)
	if _, err := app.bootstrapService.SeedAdmin(ctx, service.AdminSeed{
		Email:    app.cfg.AdminEmail,
		Password: app.cfg.AdminPassword,
		Name:     app.cfg.AdminName,
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokenService.AccessVerifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.Sessions = app.sessionService
	router.Cookie = httpapi.RefreshCookie{
		Secure: app.cfg.secureCookies(),
		MaxAge: app.tokenService.RefreshTTL,
	}
	if app.redis != nil {
		client := app.redis
		router.Cache = httpapi.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
