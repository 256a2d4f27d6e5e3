package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Port != 8080 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8080)
	}
	if cfg.Storage.Path != "wattwise.db" {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, "wattwise.db")
	}
	if cfg.Billing.DeductionPolicy != "floor_adjustment" {
		t.Errorf("Billing.DeductionPolicy = %q, want %q", cfg.Billing.DeductionPolicy, "floor_adjustment")
	}
	if !cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled should be true by default")
	}
	if cfg.Scheduler.CheckInterval != "1h" {
		t.Errorf("Scheduler.CheckInterval = %q, want %q", cfg.Scheduler.CheckInterval, "1h")
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wattwise.toml")
	content := `
[api]
port = 3000

[billing]
deduction_policy = "strict_subtraction"

[scheduler]
enabled = false
check_interval = "30m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.API.Port != 3000 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 3000)
	}
	if cfg.Billing.DeductionPolicy != "strict_subtraction" {
		t.Errorf("Billing.DeductionPolicy = %q, want %q", cfg.Billing.DeductionPolicy, "strict_subtraction")
	}
	if cfg.Scheduler.Enabled {
		t.Error("Scheduler.Enabled should be false")
	}
	if cfg.Scheduler.CheckIntervalDuration() != 30*time.Minute {
		t.Errorf("CheckIntervalDuration = %v, want %v", cfg.Scheduler.CheckIntervalDuration(), 30*time.Minute)
	}

	// Sections absent from the file keep their defaults.
	if cfg.Storage.Path != "wattwise.db" {
		t.Errorf("Storage.Path = %q, want default", cfg.Storage.Path)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/does/not/exist.toml"); err == nil {
		t.Error("expected an error for a missing config file")
	}

	// Empty path means defaults, not an error.
	if _, err := LoadConfig(""); err != nil {
		t.Errorf("LoadConfig(\"\") failed: %v", err)
	}
}

func TestCheckIntervalDuration_Fallback(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"", time.Hour},
		{"soon", time.Hour},
		{"-5m", time.Hour},
	}
	for _, tt := range tests {
		got := SchedulerConfig{CheckInterval: tt.input}.CheckIntervalDuration()
		if got != tt.want {
			t.Errorf("CheckIntervalDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
