package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "embedded", cfg.Dataset.Source)
	assert.Equal(t, "https://api.postcodes.io", cfg.Postcode.BaseURL)
	assert.Equal(t, 8, cfg.Postcode.TimeoutSecs)
	assert.InDelta(t, 10, cfg.Postcode.RatePerSec, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
server:
  port: 9090
dataset:
  source: dir
  dir: /var/data/bundle
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "dir", cfg.Dataset.Source)
	assert.Equal(t, "/var/data/bundle", cfg.Dataset.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "https://api.postcodes.io", cfg.Postcode.BaseURL)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
dataset:
  source: embedded
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("WYTG_LOG_LEVEL", "warn")
	t.Setenv("WYTG_DATASET_SOURCE", "http")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "http", cfg.Dataset.Source)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("WYTG_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func validDefaults() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Dataset:  DatasetConfig{Source: "embedded"},
		Postcode: PostcodeConfig{BaseURL: "https://api.postcodes.io", TimeoutSecs: 8, RatePerSec: 10},
		Log:      LogConfig{Level: "info", Format: "json"},
	}
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidate_DatasetSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Dataset.Source = "dir"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.dir is required")

	cfg.Dataset.Dir = "/var/data/bundle"
	assert.NoError(t, cfg.Validate())

	cfg.Dataset.Source = "http"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.url is required")

	cfg.Dataset.URL = "https://example.org/bundle.json"
	assert.NoError(t, cfg.Validate())

	cfg.Dataset.Source = "carrier-pigeon"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset.source must be")
}

func TestValidate_PostcodeBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Postcode.TimeoutSecs = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postcode.timeout_secs")

	cfg = validDefaults()
	cfg.Postcode.RatePerSec = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postcode.rate_per_sec")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
