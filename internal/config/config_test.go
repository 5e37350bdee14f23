package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stromingd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadWithoutPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
http:
  addr: 0.0.0.0:8080
resp:
  enabled: true
log:
  level: debug
  format: json
telemetry:
  enabled: true
  interval: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr)
	assert.Equal(t, "release", cfg.HTTP.Mode)
	assert.True(t, cfg.RESP.Enabled)
	assert.Equal(t, "127.0.0.1:6380", cfg.RESP.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Telemetry.Enabled)
	interval, err := cfg.Telemetry.ExportInterval()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, interval)
}

func TestTelemetryIntervalIsValidatedWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Interval = "soon"
	assert.NoError(t, cfg.Validate())

	cfg.Telemetry.Enabled = true
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telemetry.interval")

	cfg.Telemetry.Interval = "-1s"
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := writeFile(t, `
http:
  mode: production
log:
  level: loud
  format: xml
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http.mode")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeFile(t, "http: [unterminated"))
	assert.Error(t, err)
}
