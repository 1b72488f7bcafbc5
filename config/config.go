// Package config defines the zadachnik application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
	Storage  StorageConfig  `json:"storage" yaml:"storage"`
	Reminder ReminderConfig `json:"reminder" yaml:"reminder"`
	LogLevel string         `json:"log_level" yaml:"log_level"`
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token string `json:"token" yaml:"token"`
}

// StorageConfig selects and locates the task store backend.
type StorageConfig struct {
	Backend string `json:"backend" yaml:"backend"` // "csv" or "sqlite"
	DataDir string `json:"data_dir" yaml:"data_dir"`
	DBPath  string `json:"db_path" yaml:"db_path"` // sqlite only
}

// ReminderConfig controls the scan loop.
type ReminderConfig struct {
	ScanIntervalSeconds int `json:"scan_interval_seconds" yaml:"scan_interval_seconds"`
}

// ScanInterval returns the configured interval as a duration.
func (c ReminderConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "csv",
			DataDir: "./data",
			DBPath:  "./data/zadachnik.db",
		},
		Reminder: ReminderConfig{
			ScanIntervalSeconds: 60,
		},
		LogLevel: "info",
	}
}

// Load reads a YAML config file and returns the parsed configuration.
// The TELEGRAM_TOKEN environment variable overrides the file token so the
// credential can stay out of the config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if tok := os.Getenv("TELEGRAM_TOKEN"); tok != "" {
		cfg.Telegram.Token = tok
	}
	return cfg, nil
}
