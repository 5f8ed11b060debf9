package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CATALOG_URL", "http://catalog:8001")
	t.Setenv("LEDGER_URL", "http://ledger:8002")
	t.Setenv("PAYMENT_URL", "http://payments:8003")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 30*time.Minute, cfg.ViewIdleTTL)
	assert.Equal(t, "http://ledger:8002", cfg.LedgerURL)
	assert.Equal(t, uint32(5), cfg.Breaker.ConsecutiveFailures)
	assert.True(t, cfg.CatalogCache.Enabled)
	assert.True(t, cfg.Cache.Methods["GET"])
	assert.False(t, cfg.AuditConsumer)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CATALOG_URL", "")
	t.Setenv("LEDGER_URL", "")
	t.Setenv("PAYMENT_URL", "")

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "PAYMENT_URL")
}

func TestLoad_DotEnvFile(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("INVENTORY_REFRESH_INTERVAL", "unset")
	require.NoError(t, os.Unsetenv("INVENTORY_REFRESH_INTERVAL"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7000\nINVENTORY_REFRESH_INTERVAL=2s\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port, "environment wins over the file")
	assert.Equal(t, 2*time.Second, cfg.RefreshInterval)
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "3s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 3*time.Second, cfg.RefillInterval)
	assert.Equal(t, 15*time.Second, cfg.TTL)
}
