package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/utafrali/catalog-admin/internal/session"
	"github.com/utafrali/catalog-admin/internal/upload"
	pkgconfig "github.com/utafrali/catalog-admin/pkg/config"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Config holds all configuration for the catalog admin service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"ADMIN_HTTP_PORT" envDefault:"8012"`

	// Catalog backend
	BackendURL        string        `env:"CATALOG_BACKEND_URL" envDefault:"http://localhost:8001/api/v1"`
	BackendTimeout    time.Duration `env:"CATALOG_BACKEND_TIMEOUT" envDefault:"10s"`
	BackendMaxRetries int           `env:"CATALOG_BACKEND_MAX_RETRIES" envDefault:"2"`

	// JWT authentication
	JWTSecret string `env:"JWT_SECRET" envDefault:"your-secret-key-change-in-production"`

	// Redis backs the reference data cache and, with the redis driver, the
	// draft sessions.
	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr    string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass    string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB      int    `env:"REDIS_DB" envDefault:"0"`

	RefCacheTTL time.Duration `env:"ADMIN_REFDATA_CACHE_TTL" envDefault:"5m"`

	// Draft sessions
	SessionDriver string        `env:"ADMIN_SESSION_DRIVER" envDefault:"memory"`
	SessionTTL    time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"2h"`

	// Image upload
	UploadDriver           string `env:"ADMIN_UPLOAD_DRIVER" envDefault:"backend"`
	UploadConcurrency      int    `env:"ADMIN_UPLOAD_CONCURRENCY" envDefault:"4"`
	UploadMaxBytes         int64  `env:"ADMIN_UPLOAD_MAX_BYTES" envDefault:"10485760"`
	CloudinaryURL          string `env:"CLOUDINARY_URL" envDefault:""`
	CloudinaryFolder       string `env:"CLOUDINARY_FOLDER" envDefault:"products"`
	UploadMemoryPublicBase string `env:"ADMIN_UPLOAD_MEMORY_BASE_URL" envDefault:"http://localhost:8012/media"`

	// Product form behavior
	ProtectManualSlug bool `env:"ADMIN_PROTECT_MANUAL_SLUG" envDefault:"true"`
	CommaAddsTag      bool `env:"ADMIN_COMMA_ADDS_TAG" envDefault:"true"`

	// SubmitTimeout bounds one product save; a draft left marked as
	// submitting for longer can be submitted again.
	SubmitTimeout time.Duration `env:"ADMIN_SUBMIT_TIMEOUT" envDefault:"30s"`

	// Kafka audit events
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// HTTP edge
	CORSOrigins    []string `env:"ADMIN_CORS_ORIGINS" envDefault:"http://localhost:3001" envSeparator:","`
	RateLimitRPS   int      `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int      `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog admin config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in the development
// environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if !c.IsDevelopment() && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}

	switch c.SessionDriver {
	case session.DriverMemory:
	case session.DriverRedis:
		if !c.RedisEnabled {
			return fmt.Errorf("ADMIN_SESSION_DRIVER=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown ADMIN_SESSION_DRIVER %q", c.SessionDriver)
	}

	switch c.UploadDriver {
	case upload.DriverBackend, upload.DriverMemory:
	case upload.DriverCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required for the cloudinary upload driver")
		}
	default:
		return fmt.Errorf("unknown ADMIN_UPLOAD_DRIVER %q", c.UploadDriver)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("ADMIN_UPLOAD_CONCURRENCY must be at least 1")
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("ADMIN_SUBMIT_TIMEOUT must be positive, got %s", c.SubmitTimeout)
	}

	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.RateLimitRPS < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	return nil
}
