// Package config loads the laserctl configuration: built-in defaults, then an
// optional TOML file, then LASER_* environment variables. Command-line flags
// are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/banshee-data/tunable-laser/internal/laser"
	"github.com/banshee-data/tunable-laser/internal/monitoring"
)

// DefaultPort is the serial device used when none is configured.
const DefaultPort = "/dev/ttyUSB0"

// Config holds everything laserctl needs to open and drive a session.
// Serial framing is fixed by the instrument and deliberately absent.
type Config struct {
	Port      string `toml:"port" env:"LASER_PORT"`
	Simulated bool   `toml:"simulated" env:"LASER_SIMULATED"`
	PowerMode string `toml:"power_mode" env:"LASER_POWER_MODE"`
	// ReadTimeout is a duration string like "2s"; empty blocks forever.
	ReadTimeout string `toml:"read_timeout" env:"LASER_READ_TIMEOUT"`
	Listen      string `toml:"listen" env:"LASER_LISTEN"`
	LogLevel    string `toml:"log_level" env:"LASER_LOG_LEVEL"`
	LogFormat   string `toml:"log_format" env:"LASER_LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:      DefaultPort,
		PowerMode: laser.PowerLiteral.String(),
		LogLevel:  "info",
		LogFormat: monitoring.FormatConsole,
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path skips the file. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		cleanPath := filepath.Clean(path)
		if ext := filepath.Ext(cleanPath); ext != ".toml" {
			return nil, fmt.Errorf("config file must have .toml extension, got %q", ext)
		}

		// Check file size for safety (max 64KB)
		fileInfo, err := os.Stat(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		const maxFileSize = 64 * 1024
		if fileInfo.Size() > maxFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
		}

		meta, err := toml.DecodeFile(cleanPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown config key %q", undecoded[0].String())
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if !c.Simulated && strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("port is required unless simulated")
	}
	if _, err := laser.ParsePowerMode(c.PowerMode); err != nil {
		return err
	}
	if _, err := c.ReadTimeoutDuration(); err != nil {
		return err
	}
	if _, err := monitoring.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", monitoring.FormatConsole, monitoring.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// ReadTimeoutDuration parses ReadTimeout. Empty means no timeout.
func (c *Config) ReadTimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(c.ReadTimeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(c.ReadTimeout))
	if err != nil {
		return 0, fmt.Errorf("invalid read_timeout '%s': %w", c.ReadTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("read_timeout must be non-negative, got %s", c.ReadTimeout)
	}
	return d, nil
}

// SessionOptions translates the configuration into laser.Open options.
func (c *Config) SessionOptions() ([]laser.Option, error) {
	mode, err := laser.ParsePowerMode(c.PowerMode)
	if err != nil {
		return nil, err
	}
	timeout, err := c.ReadTimeoutDuration()
	if err != nil {
		return nil, err
	}
	return []laser.Option{
		laser.WithPowerMode(mode),
		laser.WithReadTimeout(timeout),
	}, nil
}
