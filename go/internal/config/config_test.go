package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"PORT", "LOG_LEVEL", "PUBLIC_BASE_URL", "STORE", "NATS_URL", "JWT_SECRET",
		"FEED_FALLBACK_INTERVAL", "OVERLAY_CLOCK_INTERVAL", "DB_NAME", FileEnv} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Empty(t, cfg.NATSURL)
	assert.Equal(t, 200*time.Millisecond, cfg.Overlay.ClockInterval)
	assert.Equal(t, "matchboard", cfg.Database.Database)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "matchboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
store: postgres
log_level: debug
feed:
  fallback_interval: 30s
overlay:
  clock_interval: 500ms
`), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 30*time.Second, cfg.Feed.FallbackInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.Overlay.ClockInterval)
	// untouched nested defaults survive the file
	assert.Equal(t, time.Second, cfg.Overlay.CardInterval)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE", "redis")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("PORT", "http")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
