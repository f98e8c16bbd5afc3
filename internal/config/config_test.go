package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8010, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 720*time.Hour, cfg.StorageTTLDuration())
	assert.Equal(t, 200, cfg.ProductsFetchLimit)
	assert.Equal(t, 5*time.Minute, cfg.CatalogTTL())
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout())
	assert.Equal(t, 2*time.Second, cfg.PersistTimeout())
	assert.Empty(t, cfg.ProductsAPIURL)
	assert.False(t, cfg.EventsEnabled())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.RateLimitEnabled())
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Empty(t, cfg.TrustedProxyCIDRs)
}

func TestLoad_KafkaBrokersEnableEvents(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.EventsEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"http port", map[string]string{"STOREFRONT_HTTP_PORT": "0"}, "invalid HTTP port"},
		{"storage driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER must be one of"},
		{"negative ttl", map[string]string{"STORAGE_TTL_HOURS": "-1"}, "STORAGE_TTL_HOURS"},
		{"fetch limit", map[string]string{"PRODUCTS_FETCH_LIMIT": "0"}, "PRODUCTS_FETCH_LIMIT"},
		{"catalog ttl", map[string]string{"CATALOG_TTL_SECONDS": "0"}, "CATALOG_TTL_SECONDS"},
		{"session idle", map[string]string{"SESSION_IDLE_MINUTES": "0"}, "SESSION_IDLE_MINUTES"},
		{"persist timeout", map[string]string{"PERSIST_TIMEOUT_MS": "0"}, "PERSIST_TIMEOUT_MS"},
		{"rate limit rps", map[string]string{"RATE_LIMIT_RPS": "-1"}, "RATE_LIMIT_RPS"},
		{"rate limit burst", map[string]string{"RATE_LIMIT_BURST": "0"}, "RATE_LIMIT_BURST"},
		{"trusted proxies", map[string]string{"TRUSTED_PROXY_CIDRS": "10.0.0.0/8,lb"}, "TRUSTED_PROXY_CIDRS"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_DriverRequirements(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	redisCfg := *cfg
	redisCfg.StorageDriver = "redis"
	redisCfg.RedisAddr = ""
	assert.ErrorContains(t, redisCfg.validate(), "REDIS_ADDR is required")

	pgCfg := *cfg
	pgCfg.StorageDriver = "postgres"
	pgCfg.PostgresHost = ""
	assert.ErrorContains(t, pgCfg.validate(), "POSTGRES_HOST is required")

	pgCfg.PostgresHost = "db"
	pgCfg.PostgresUser = ""
	assert.ErrorContains(t, pgCfg.validate(), "POSTGRES_USER is required")
}

func TestLoad_CustomStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_HOST", "pg.internal")
	t.Setenv("STORAGE_TTL_HOURS", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.Equal(t, "pg.internal", cfg.PostgresHost)
	assert.Zero(t, cfg.StorageTTLDuration())
}

func TestLoad_RateLimitDisabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("RATE_LIMIT_BURST", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.RateLimitEnabled())
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXY_CIDRS", "10.0.0.0/8,fd00::/8")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "fd00::/8"}, cfg.TrustedProxyCIDRs)
}
