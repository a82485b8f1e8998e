package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.json"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 300, cfg.DiscoveryIntervalSeconds)
	assert.Empty(t, cfg.Renderers)
}

func TestLoadReadsRendererFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"renderers": [{"name": "living_room", "control_url": "http://192.168.1.20:1400/MediaRenderer/AVTransport/Control"}],
		"media_server": {"name": "nas", "control_url": "http://192.168.1.30:8200/ContentDirectory/Control"}
	}`), 0o600)
	require.NoError(t, err)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Renderers, 1)
	assert.Equal(t, "living_room", cfg.Renderers[0].Name)
	assert.Equal(t, "nas", cfg.MediaServer.Name)
}

func TestLoadRejectsShortAuthSecretWhenEnabled(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_SECRET", "too-short")

	_, err := Load()
	assert.Error(t, err)
}
