package app

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/geoadmin/internal/auth/ratelimit"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AccessSecret  string `env:"JWT_SECRET,required,notEmpty"`
	RefreshSecret string `env:"JWT_REFRESH_SECRET,required,notEmpty"`
	Issuer        string `env:"AUTH_ISSUER"        envDefault:"geoadmin-auth"`

	DatabaseFile        string        `env:"AUTH_DATABASE_FILE"    envDefault:"auth.db"`
	Env                 string        `env:"ENV"                   envDefault:"dev"`  // dev, staging, prod
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"` // debug, info, warn, error
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"` // json, text
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	LoginRateLimitMax    int           `env:"LOGIN_RATE_LIMIT_MAX"    envDefault:"100"`
	LoginRateLimitWindow time.Duration `env:"LOGIN_RATE_LIMIT_WINDOW" envDefault:"1h"`
	LoginRateLimitSweep  time.Duration `env:"LOGIN_RATE_LIMIT_SWEEP"  envDefault:"30m"`

	GeoTimeout     time.Duration `env:"GEO_TIMEOUT"      envDefault:"3s"`
	GeoPrimaryURL  string        `env:"GEO_PRIMARY_URL"  envDefault:"https://ipapi.co"`
	GeoFallbackURL string        `env:"GEO_FALLBACK_URL" envDefault:"https://ipinfo.io"`

	HistoryLimit int `env:"HISTORY_LIMIT" envDefault:"50"`

	// Optional: a shared Redis window instead of the in-process one.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// Optional: login events are published when brokers are set.
	KafkaBrokers    []string `env:"KAFKA_BROKERS"     envSeparator:","`
	KafkaLoginTopic string   `env:"KAFKA_LOGIN_TOPIC" envDefault:"auth.logins"`

	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELSampleRatio float64 `env:"OTEL_SAMPLE_RATIO"           envDefault:"1"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME"`
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks rules that span fields.
func (c Config) Validate() error {
	var errs []error

	if c.AccessSecret == c.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if c.LoginRateLimitMax < 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_MAX must not be negative"))
	}
	if c.LoginRateLimitWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT_WINDOW must be positive"))
	}
	if c.HistoryLimit <= 0 {
		errs = append(errs, errors.New("HISTORY_LIMIT must be positive"))
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together"))
	}

	return errors.Join(errs...)
}

func (c Config) limiterOptions() ratelimit.Options {
	return ratelimit.Options{Max: c.LoginRateLimitMax, Window: c.LoginRateLimitWindow}
}

// secureCookies reports whether the refresh cookie is marked Secure.
func (c Config) secureCookies() bool {
	return c.Env == "prod"
}
