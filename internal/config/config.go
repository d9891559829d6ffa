// Package config provides application configuration loaded from TOML files
// with defaults suitable for a single-warehouse installation.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Cutting  CuttingConfig  `toml:"cutting"`
	Logging  LoggingConfig  `toml:"logging"`
	Worker   WorkerConfig   `toml:"worker"`
}

// DatabaseConfig controls the SQLite store.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	BusyTimeoutMs int    `toml:"busy_timeout_ms"`
}

// CuttingConfig holds optimizer and remnant-handling defaults.
type CuttingConfig struct {
	StandardLengthMm int `toml:"standard_length_mm"` // purchase length for new bars
	MinRemnantMm     int `toml:"min_remnant_mm"`     // shorter leftovers go to scrap
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
	JSON  bool   `toml:"json"`
}

// WorkerConfig controls the background job worker.
type WorkerConfig struct {
	PollIntervalMs int `toml:"poll_interval_ms"`
	MaxAttempts    int `toml:"max_attempts"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Path:          filepath.Join(defaultDataDir(), "barforge.db"),
			BusyTimeoutMs: 5000,
		},
		Cutting: CuttingConfig{
			StandardLengthMm: 12000,
			MinRemnantMm:     100,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
		Worker: WorkerConfig{
			PollIntervalMs: 2000,
			MaxAttempts:    3,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".barforge")
}

// DefaultPath returns the default location of the configuration file.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "config.toml")
}

// Load reads a TOML configuration file, overlaying it on the defaults.
// A missing file returns the defaults with no error.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot work with.
func (c Config) Validate() error {
	if c.Cutting.StandardLengthMm <= 0 {
		return fmt.Errorf("cutting.standard_length_mm must be positive, got %d", c.Cutting.StandardLengthMm)
	}
	if c.Cutting.MinRemnantMm < 0 {
		return fmt.Errorf("cutting.min_remnant_mm must not be negative, got %d", c.Cutting.MinRemnantMm)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug/info/warn/error, got %q", c.Logging.Level)
	}
	if c.Worker.MaxAttempts <= 0 {
		return fmt.Errorf("worker.max_attempts must be positive, got %d", c.Worker.MaxAttempts)
	}
	return nil
}
