// Package config handles configuration loading and defaults for stride.
// Configuration lives beside the database (typically
// ~/.config/stride/config.yaml) and only covers knobs that make no sense
// inside the store: sync cadence, metric source location, reminders.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Sync configures the automatic metric sync scheduler.
	Sync SyncConfig `yaml:"sync,omitempty"`

	// Reminders configures incomplete-habit reminders.
	Reminders ReminderConfig `yaml:"reminders,omitempty"`
}

// SyncConfig defines automatic-tracking sync settings.
type SyncConfig struct {
	// IntervalMin is how often the watch loop refreshes automatic habits.
	IntervalMin int `yaml:"interval_min,omitempty"`

	// CooldownSec suppresses a sync when the previous one finished more
	// recently than this.
	CooldownSec int `yaml:"cooldown_sec,omitempty"`

	// TimeoutSec bounds a single metric fetch.
	TimeoutSec int `yaml:"timeout_sec,omitempty"`

	// SourcePath points at the health-export JSON file supplying metric
	// samples.
	SourcePath string `yaml:"source_path,omitempty"`
}

// ReminderConfig defines reminder settings.
type ReminderConfig struct {
	// Enabled enables delivery to the stride-tray notifier.
	Enabled bool `yaml:"enabled,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			IntervalMin: 5,
			CooldownSec: 60,
			TimeoutSec:  10,
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "stride", "config.yaml")
}

// Load reads the config at path, applying defaults for anything unset. A
// missing file is not an error; the defaults stand.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Sync.IntervalMin <= 0 {
		cfg.Sync.IntervalMin = Default().Sync.IntervalMin
	}
	if cfg.Sync.CooldownSec <= 0 {
		cfg.Sync.CooldownSec = Default().Sync.CooldownSec
	}
	if cfg.Sync.TimeoutSec <= 0 {
		cfg.Sync.TimeoutSec = Default().Sync.TimeoutSec
	}

	return cfg, nil
}
