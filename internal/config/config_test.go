package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsignal/parliament-mcp/internal/config"
)

func TestLoadConfig_DefaultHostIsLocalhost(t *testing.T) {
	_ = os.Unsetenv("PARLIAMENT_HOST")
	cfg, err := config.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host,
		"Default host must be 127.0.0.1 for security")
}

func TestLoadConfig_CanOverrideHost(t *testing.T) {
	t.Setenv("PARLIAMENT_HOST", "0.0.0.0")
	cfg, err := config.LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.Cache.StorageEngine)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 1024, cfg.Cache.Capacity)
	assert.Equal(t, 3, cfg.Fetch.Attempts)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Backoff())
	assert.Equal(t, "https://bills-api.parliament.uk", cfg.Upstream.BillsAPI)
}

func TestLoadConfig_YAMLFileUnderEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9999
cache:
  storage_engine: sqlite
`), 0o600))

	t.Setenv("PARLIAMENT_CONFIG_FILE", path)
	t.Setenv("PARLIAMENT_PORT", "7070")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	// Env beats file, file beats defaults.
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Cache.StorageEngine)
}

func TestLoadConfig_RejectsUnknownStorageEngine(t *testing.T) {
	t.Setenv("PARLIAMENT_STORAGE_ENGINE", "redis")
	_, err := config.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage engine")
}

func TestTTLFor(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.TTLFor("members"))
	assert.Equal(t, 2*time.Hour, cfg.TTLFor("legislation"))
	assert.Equal(t, 30*time.Minute, cfg.TTLFor("bills"))
	// Unknown datasets fall back to the general data TTL.
	assert.Equal(t, 30*time.Minute, cfg.TTLFor("edms"))
}
