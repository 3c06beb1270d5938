package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 8087, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "http://localhost:8808", cfg.Analyzer.URL)
	assert.Equal(t, 60, cfg.RateLimit.MapsPerHour)
	assert.True(t, cfg.DuckDB.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  public_url: https://maps.example.com
rate_limit:
  maps_per_hour: 5
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.RateLimit.MapsPerHour)
	assert.Equal(t, "https://maps.example.com", cfg.Server.PublicURL)
	// Untouched keys keep their defaults.
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("SPATIX_SERVER__PORT", "9001")
	t.Setenv("SPATIX_LOG__FORMAT", "json")
	t.Setenv("SPATIX_ANALYZER__URL", "http://analyzer:8808")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "http://analyzer:8808", cfg.Analyzer.URL)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("SPATIX_SERVER__PORT", "70000")
	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.DataDir = ""
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.RateLimit.MapsPerHour = 0
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestPublicURL(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, "http://localhost:8087", cfg.PublicURL())

	cfg.Server.Host = "10.0.0.5"
	assert.Equal(t, "http://10.0.0.5:8087", cfg.PublicURL())

	cfg.Server.PublicURL = "https://maps.example.com/"
	assert.Equal(t, "https://maps.example.com", cfg.PublicURL())
}
