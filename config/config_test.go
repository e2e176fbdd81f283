package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bms.db", cfg.Database.Path)
	assert.Equal(t, DefaultServerPort, cfg.ServerPort())
	assert.Equal(t, 3600, cfg.Scheduler.TickIntervalSeconds)
	assert.Equal(t, 10, cfg.Scheduler.StartupDelaySeconds)
	assert.Equal(t, 2, cfg.Scheduler.ItemCooldownSeconds)
	assert.Equal(t, 50, cfg.Scheduler.BatchLimit)
	assert.Equal(t, 15, cfg.Providers.TimeoutSeconds)
	assert.Equal(t, 10, cfg.Providers.MaxResults)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bms.toml")
	content := `
[database]
path = "/var/lib/bms/bms.db"

[server]
port = 9100
jwt_secret = "test-secret"

[scheduler]
tick_interval_seconds = 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bms/bms.db", cfg.Database.Path)
	assert.Equal(t, 9100, cfg.ServerPort())
	assert.Equal(t, "test-secret", cfg.Server.JWTSecret)
	assert.Equal(t, 60, cfg.Scheduler.TickIntervalSeconds)
	// Unset sections keep defaults
	assert.Equal(t, 2, cfg.Scheduler.ItemCooldownSeconds)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
