// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database access, template loading,
// dispatch pacing, outbound transport, rate limiting, and observability.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h"`
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	Endpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	ServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"go-intro-broker"`
	SampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1.0"`
}

// DispatchConfig tunes the dispatch coordinator.
type DispatchConfig struct {
	Concurrency int           `env:"DISPATCH_CONCURRENCY" envDefault:"4"` // parallel sends per batch call
	RPS         float64       `env:"DISPATCH_RPS" envDefault:"0"`         // 0 disables pacing
	Lease       time.Duration `env:"DISPATCH_LEASE" envDefault:"2m"`      // how long a "sending" claim blocks other callers
	SMSLimit    int           `env:"SMS_LIMIT" envDefault:"160"`
}

// OutboundConfig selects the message transport.
type OutboundConfig struct {
	Kind          string `env:"OUTBOUND" envDefault:"log"` // log|nats
	NATSURL       string `env:"NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	SubjectPrefix string `env:"NATS_SUBJECT_PREFIX" envDefault:"intro.outbound"`
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        `env:"PORT" envDefault:"8080"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"20s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
	GinMode           string        `env:"GIN_MODE" envDefault:"release"` // debug|release|test

	// Logging / Docs
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"` // debug|info|warn|error|fatal|panic
	LogPretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SwaggerEnabled bool   `env:"SWAGGER_ENABLED" envDefault:"false"`
	APIBasePath    string `env:"API_BASE_PATH" envDefault:"/api/v1"`

	// Storage
	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"` // sqlite|postgres
	DBPath   string `env:"DB_PATH" envDefault:"intro.db"` // sqlite file
	DBDSN    string `env:"DB_DSN"`                        // postgres DSN

	// Templates
	TemplatesPath  string `env:"TEMPLATES_PATH"` // empty = embedded defaults only
	TemplatesWatch bool   `env:"TEMPLATES_WATCH" envDefault:"false"`
	PublicBaseURL  string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	IntroNotify    bool   `env:"INTRO_NOTIFY" envDefault:"true"` // email both parties on introduction create

	Dispatch DispatchConfig
	Outbound OutboundConfig

	// Rate limiting
	RateRPS   float64 `env:"RATE_RPS" envDefault:"5"`
	RateBurst int     `env:"RATE_BURST" envDefault:"10"`

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	// --- normalization ---
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.GinMode = strings.ToLower(strings.TrimSpace(cfg.GinMode))
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	cfg.APIBasePath = normalizeBasePath(cfg.APIBasePath)
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.Outbound.Kind = strings.ToLower(strings.TrimSpace(cfg.Outbound.Kind))
	cfg.PublicBaseURL = strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	cfg.CORS.AllowedOrigins = cleanList(cfg.CORS.AllowedOrigins)

	return cfg, cfg.Validate()
}

// Validate checks cross-field constraints. Load calls it; tests that build a
// Config literal can call it directly.
func (cfg Config) Validate() error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.TemplatesWatch && strings.TrimSpace(cfg.TemplatesPath) == "" {
		return errors.New("TEMPLATES_WATCH requires TEMPLATES_PATH")
	}
	if cfg.Dispatch.Concurrency < 1 {
		return errors.New("DISPATCH_CONCURRENCY must be >= 1")
	}
	if cfg.Dispatch.RPS < 0 {
		return errors.New("DISPATCH_RPS must be >= 0")
	}
	if cfg.Dispatch.Lease <= 0 {
		return errors.New("DISPATCH_LEASE must be > 0")
	}
	if cfg.Dispatch.SMSLimit < 1 {
		return errors.New("SMS_LIMIT must be >= 1")
	}
	switch cfg.Outbound.Kind {
	case "log":
	case "nats":
		if strings.TrimSpace(cfg.Outbound.NATSURL) == "" {
			return errors.New("NATS_URL is required when OUTBOUND=nats")
		}
		if strings.TrimSpace(cfg.Outbound.SubjectPrefix) == "" {
			return errors.New("NATS_SUBJECT_PREFIX must not be empty")
		}
	default:
		return errors.New("OUTBOUND must be one of: log, nats")
	}
	if cfg.RateRPS < 0 {
		return errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.IdempotencyTTL <= 0 {
		return errors.New("IDEMPOTENCY_TTL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return nil
}

// cleanList trims entries and drops empty ones.
func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
