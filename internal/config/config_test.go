package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load defaults ---

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Fatalf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.DBDriver != "sqlite" || cfg.DBPath != "intro.db" {
		t.Fatalf("db defaults = %q %q", cfg.DBDriver, cfg.DBPath)
	}
	if cfg.Dispatch.Concurrency != 4 || cfg.Dispatch.SMSLimit != 160 || cfg.Dispatch.Lease != 2*time.Minute {
		t.Fatalf("dispatch defaults = %+v", cfg.Dispatch)
	}
	if cfg.Outbound.Kind != "log" {
		t.Fatalf("outbound default = %q", cfg.Outbound.Kind)
	}
	if cfg.Security.HSTSMaxAge != 180*24*time.Hour {
		t.Fatalf("HSTSMaxAge default = %v", cfg.Security.HSTSMaxAge)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Fatalf("expected nil origins, got %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.IntroNotify {
		t.Fatalf("IntroNotify should default to true")
	}
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_OverridesAndNormalization(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("GIN_MODE", "weird")    // -> release
	t.Setenv("LOG_LEVEL", "WARNING") // -> warn
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("API_BASE_PATH", "api/v2/") // -> /api/v2
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/intro")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("DISPATCH_CONCURRENCY", "8")
	t.Setenv("DISPATCH_RPS", "2.5")
	t.Setenv("OUTBOUND", "NATS")
	t.Setenv("PUBLIC_BASE_URL", "https://intro.example.com/")
	t.Setenv("IDEMPOTENCY_TTL", "48h")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8088" || cfg.ReadTimeout != 2*time.Second {
		t.Fatalf("server overrides not applied: %+v", cfg)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Fatalf("logging = %q %v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Fatalf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("DBDriver = %q", cfg.DBDriver)
	}
	if want := []string{"https://a.com", "http://b"}; !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Fatalf("origins = %v, want %v", cfg.CORS.AllowedOrigins, want)
	}
	if cfg.Dispatch.Concurrency != 8 || cfg.Dispatch.RPS != 2.5 {
		t.Fatalf("dispatch = %+v", cfg.Dispatch)
	}
	if cfg.Outbound.Kind != "nats" {
		t.Fatalf("outbound = %q", cfg.Outbound.Kind)
	}
	if cfg.PublicBaseURL != "https://intro.example.com" {
		t.Fatalf("PublicBaseURL = %q", cfg.PublicBaseURL)
	}
	if cfg.IdempotencyTTL != 48*time.Hour || cfg.OTEL.SampleRatio != 0.25 {
		t.Fatalf("ttl/sample = %v %v", cfg.IdempotencyTTL, cfg.OTEL.SampleRatio)
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("RATE_BURST", "nope")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "parse env") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

// --- Validate branches ---

func validConfig() Config {
	return Config{
		Port:              "8080",
		ReadTimeout:       time.Second,
		ReadHeaderTimeout: time.Second,
		WriteTimeout:      time.Second,
		IdleTimeout:       time.Second,
		MaxHeaderBytes:    1024,
		GinMode:           "release",
		LogLevel:          "info",
		APIBasePath:       "/api/v1",
		DBDriver:          "sqlite",
		DBPath:            "x.db",
		Dispatch:          DispatchConfig{Concurrency: 1, Lease: time.Minute, SMSLimit: 160},
		Outbound:          OutboundConfig{Kind: "log"},
		RateBurst:         1,
		IdempotencyTTL:    time.Hour,
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
		{"port", func(c *Config) { c.Port = " " }, "PORT"},
		{"timeouts", func(c *Config) { c.IdleTimeout = 0 }, "timeouts"},
		{"header bytes", func(c *Config) { c.MaxHeaderBytes = 0 }, "MAX_HEADER_BYTES"},
		{"sqlite path", func(c *Config) { c.DBPath = "" }, "DB_PATH"},
		{"postgres dsn", func(c *Config) { c.DBDriver = "postgres" }, "DB_DSN"},
		{"driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"watch without path", func(c *Config) { c.TemplatesWatch = true }, "TEMPLATES_WATCH"},
		{"concurrency", func(c *Config) { c.Dispatch.Concurrency = 0 }, "DISPATCH_CONCURRENCY"},
		{"dispatch rps", func(c *Config) { c.Dispatch.RPS = -1 }, "DISPATCH_RPS"},
		{"lease", func(c *Config) { c.Dispatch.Lease = 0 }, "DISPATCH_LEASE"},
		{"sms limit", func(c *Config) { c.Dispatch.SMSLimit = 0 }, "SMS_LIMIT"},
		{"outbound", func(c *Config) { c.Outbound.Kind = "smtp" }, "OUTBOUND"},
		{"nats url", func(c *Config) { c.Outbound.Kind = "nats"; c.Outbound.SubjectPrefix = "p" }, "NATS_URL"},
		{"nats prefix", func(c *Config) { c.Outbound.Kind = "nats"; c.Outbound.NATSURL = "nats://x" }, "NATS_SUBJECT_PREFIX"},
		{"rate rps", func(c *Config) { c.RateRPS = -1 }, "RATE_RPS"},
		{"rate burst", func(c *Config) { c.RateBurst = 0 }, "RATE_BURST"},
		{"hsts", func(c *Config) { c.Security.HSTSMaxAge = -time.Second }, "HSTS_MAX_AGE"},
		{"idem ttl", func(c *Config) { c.IdempotencyTTL = 0 }, "IDEMPOTENCY_TTL"},
		{"sample", func(c *Config) { c.OTEL.SampleRatio = 1.5 }, "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q, got %v", tc.want, err)
			}
		})
	}
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":          "/",
		"   ":       "/",
		"api":       "/api",
		"/api/":     "/api",
		"/":         "/",
		"api/v1///": "/api/v1",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanList(t *testing.T) {
	if got := cleanList(nil); got != nil {
		t.Fatalf("nil in -> %v", got)
	}
	if got := cleanList([]string{" ", ""}); got != nil {
		t.Fatalf("blank in -> %v", got)
	}
	if got := cleanList([]string{" a ", "b"}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("got %v", got)
	}
}
