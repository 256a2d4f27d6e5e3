package main

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration, loaded from a TOML file. Flags
// override the file; the file overrides defaults.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Billing   BillingConfig   `toml:"billing"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type APIConfig struct {
	Port int `toml:"port"`
}

type StorageConfig struct {
	// Path is the SQLite database path. ":memory:" for an in-memory DB.
	Path string `toml:"path"`
}

type BillingConfig struct {
	// DeductionPolicy is "floor_adjustment" or "strict_subtraction".
	DeductionPolicy string `toml:"deduction_policy"`
}

type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	CheckInterval string `toml:"check_interval"` // Go duration, e.g. "1h"
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		API:       APIConfig{Port: 8080},
		Storage:   StorageConfig{Path: "wattwise.db"},
		Billing:   BillingConfig{DeductionPolicy: "floor_adjustment"},
		Scheduler: SchedulerConfig{Enabled: true, CheckInterval: "1h"},
	}
}

// LoadConfig reads a TOML config file over the defaults. A missing file
// is an error; use an empty path to run on defaults alone.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// CheckIntervalDuration parses the scheduler interval, falling back to
// one hour on an empty or invalid value.
func (c SchedulerConfig) CheckIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.CheckInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
