package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	v, err := New()
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "rayan", cfg.MongoDatabase)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, 7*time.Second, cfg.DashboardRefresh())
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
	assert.Equal(t, "مركز الرايان لخدمات السيارات", cfg.ShopName)
	assert.Empty(t, cfg.OTLPEndpoint)
	assert.False(t, cfg.OTLPInsecure)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
}

func TestLoadTracingFromEnv(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", " collector:4317 ")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")
	v, err := New()
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.True(t, cfg.OTLPInsecure)
	assert.Equal(t, 0.25, cfg.TraceSampleRatio)

	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "3")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Memory")
	t.Setenv("LOW_STOCK_THRESHOLD", "3")
	t.Setenv("SHOP_TIMEZONE", "UTC")
	v, err := New()
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 3, cfg.LowStockThreshold)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsBadDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	v, err := New()
	require.NoError(t, err)
	_, err = Load(v)
	assert.Error(t, err)
}

func TestLoadPostgresNeedsDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "")
	v, err := New()
	require.NoError(t, err)
	_, err = Load(v)
	assert.Error(t, err)
}
