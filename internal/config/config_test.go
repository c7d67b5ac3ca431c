package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.False(t, cfg.Simulated)
	assert.Equal(t, "literal", cfg.PowerMode)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, "laser.toml", `
port = "/dev/ttyS4"
power_mode = "converted"
read_timeout = "1500ms"
listen = ":9090"
log_format = "json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyS4", cfg.Port)
	assert.Equal(t, "converted", cfg.PowerMode)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "json", cfg.LogFormat)
	// Unset keys keep defaults.
	assert.Equal(t, "info", cfg.LogLevel)

	d, err := cfg.ReadTimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	opts, err := cfg.SessionOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "laser.toml", `port = "/dev/ttyS4"`)
	t.Setenv("LASER_PORT", "/dev/ttyACM0")
	t.Setenv("LASER_SIMULATED", "true")
	t.Setenv("LASER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", cfg.Port)
	assert.True(t, cfg.Simulated)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "laser.json", `{}`, ".toml extension"},
		{"bad toml", "laser.toml", `port = `, "failed to parse"},
		{"unknown key", "laser.toml", `baud_rate = 9600`, "unknown config key"},
		{"bad power mode", "laser.toml", `power_mode = "loud"`, "unknown power mode"},
		{"bad timeout", "laser.toml", `read_timeout = "soon"`, "invalid read_timeout"},
		{"negative timeout", "laser.toml", `read_timeout = "-1s"`, "non-negative"},
		{"bad level", "laser.toml", `log_level = "verbose"`, "unknown log level"},
		{"bad format", "laser.toml", `log_format = "xml"`, "unknown log format"},
		{"empty port", "laser.toml", `port = ""`, "port is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestLoad_TooLarge(t *testing.T) {
	body := "# " + strings.Repeat("x", 70*1024) + "\n"
	_, err := Load(writeConfig(t, "big.toml", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidate_SimulatedWithoutPort(t *testing.T) {
	cfg := Default()
	cfg.Port = ""
	cfg.Simulated = true
	assert.NoError(t, cfg.Validate())
}
