package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9527", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Game.DefaultTimeout)
	assert.Equal(t, 5, cfg.Game.DefaultPlayers)
	assert.Equal(t, []string{"standard", "maneuvering"}, cfg.Game.Packages)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.Replay.Enabled)
	assert.Equal(t, "replays", cfg.Replay.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	content := []byte(`
server:
  address: ":8080"
game:
  default_timeout: 30s
  default_players: 8
logging:
  level: debug
  format: console
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Game.DefaultTimeout)
	assert.Equal(t, 8, cfg.Game.DefaultPlayers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Sections absent from the file keep their defaults.
	assert.Equal(t, "replays", cfg.Replay.Dir)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":9527", cfg.Server.Address)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SGS_SERVER_ADDRESS", ":7777")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Address)
}
