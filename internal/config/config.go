package config

import (
	"fmt"
	"net"
	"slices"
	"time"

	"github.com/lifestyle/storefront/internal/storage"
	pkgconfig "github.com/lifestyle/storefront/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`

	// Persistence driver: memory, redis or postgres
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"memory"`

	// Stored wishlists and carts expire after this many hours (default: 30 days)
	StorageTTL int `env:"STORAGE_TTL_HOURS" envDefault:"720"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`

	// Kafka; no brokers disables event publishing
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Product catalog; an empty URL serves the bundled sample catalog
	ProductsAPIURL     string `env:"PRODUCTS_API_URL" envDefault:""`
	ProductsFetchLimit int    `env:"PRODUCTS_FETCH_LIMIT" envDefault:"200"`
	CatalogTTLSeconds  int    `env:"CATALOG_TTL_SECONDS" envDefault:"300"`

	// Sessions
	SessionIdleMinutes int `env:"SESSION_IDLE_MINUTES" envDefault:"30"`
	PersistTimeoutMs   int `env:"PERSIST_TIMEOUT_MS" envDefault:"2000"`

	// Per-IP rate limit on session endpoints; zero RPS disables it
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// Proxies whose X-Forwarded-For is believed; empty keys clients by peer address
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var drivers = []string{storage.DriverMemory, storage.DriverRedis, storage.DriverPostgres}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains(drivers, c.StorageDriver) {
		return fmt.Errorf("STORAGE_DRIVER must be one of %v, got %q", drivers, c.StorageDriver)
	}
	if c.StorageTTL < 0 {
		return fmt.Errorf("STORAGE_TTL_HOURS must not be negative, got %d", c.StorageTTL)
	}
	if c.StorageDriver == storage.DriverRedis && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required for the redis storage driver")
	}
	if c.StorageDriver == storage.DriverPostgres {
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required for the postgres storage driver")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required for the postgres storage driver")
		}
	}
	if c.ProductsFetchLimit < 1 {
		return fmt.Errorf("PRODUCTS_FETCH_LIMIT must be positive, got %d", c.ProductsFetchLimit)
	}
	if c.CatalogTTLSeconds < 1 {
		return fmt.Errorf("CATALOG_TTL_SECONDS must be positive, got %d", c.CatalogTTLSeconds)
	}
	if c.SessionIdleMinutes < 1 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be positive, got %d", c.SessionIdleMinutes)
	}
	if c.PersistTimeoutMs < 1 {
		return fmt.Errorf("PERSIST_TIMEOUT_MS must be positive, got %d", c.PersistTimeoutMs)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %f", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}
	for _, cidr := range c.TrustedProxyCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("TRUSTED_PROXY_CIDRS contains invalid CIDR %q", cidr)
		}
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// StorageTTLDuration returns the stored-entry lifetime; zero means no expiry.
func (c *Config) StorageTTLDuration() time.Duration {
	return time.Duration(c.StorageTTL) * time.Hour
}

// CatalogTTL returns how long a fetched catalog is served before refreshing.
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogTTLSeconds) * time.Second
}

// SessionIdleTimeout returns how long an untouched session stays in memory.
func (c *Config) SessionIdleTimeout() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// PersistTimeout bounds each background storage write.
func (c *Config) PersistTimeout() time.Duration {
	return time.Duration(c.PersistTimeoutMs) * time.Millisecond
}

// RateLimitEnabled reports whether session endpoints are throttled.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
