package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.opchat/config.toml.
type Config struct {
	DefaultOperator string     `toml:"default_operator"`
	API             APIConfig  `toml:"api"`
	Sync            SyncConfig `toml:"sync"`
}

// APIConfig configures the dispatch REST endpoint.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// SyncConfig configures the background triggers.
type SyncConfig struct {
	IntervalSeconds           int `toml:"interval_seconds"`
	AttendanceIntervalSeconds int `toml:"attendance_interval_seconds"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API:  APIConfig{TimeoutSeconds: 15},
		Sync: SyncConfig{IntervalSeconds: 30, AttendanceIntervalSeconds: 300},
	}
}

// Timeout returns the per-request API timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// SyncInterval returns the sync-cycle period.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.IntervalSeconds) * time.Second
}

// AttendanceInterval returns the attendance-upload period.
func (c *Config) AttendanceInterval() time.Duration {
	return time.Duration(c.Sync.AttendanceIntervalSeconds) * time.Second
}

// Load reads config from the given path, applying defaults for any field the
// file leaves unset. Returns an error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
