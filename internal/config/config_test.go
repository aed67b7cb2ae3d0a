package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "inverted period range",
			mutate:  func(c *Config) { c.Sweep.StartPeriod, c.Sweep.EndPeriod = 100, 10 },
			wantErr: true,
		},
		{
			name:    "zero start period",
			mutate:  func(c *Config) { c.Sweep.StartPeriod = 0 },
			wantErr: true,
		},
		{
			name:    "empty grid",
			mutate:  func(c *Config) { c.Sweep.NumPeriods = 0 },
			wantErr: true,
		},
		{
			name:    "inverted amplitude bracket",
			mutate:  func(c *Config) { c.Sweep.AmpLow, c.Sweep.AmpHigh = 10, 1 },
			wantErr: true,
		},
		{
			name:    "target fap of one",
			mutate:  func(c *Config) { c.Sweep.TargetFAP = 1 },
			wantErr: true,
		},
		{
			name:    "no iterations",
			mutate:  func(c *Config) { c.Sweep.MaxIterations = 0 },
			wantErr: true,
		},
		{
			name:    "whole-unit precision",
			mutate:  func(c *Config) { c.Sweep.Precision = 0 },
			wantErr: false,
		},
		{
			name:    "negative precision",
			mutate:  func(c *Config) { c.Sweep.Precision = -2 },
			wantErr: true,
		},
		{
			name:    "unknown fap method",
			mutate:  func(c *Config) { c.Periodogram.FAPMethod = "magic" },
			wantErr: true,
		},
		{
			name:    "bootstrap without rounds",
			mutate:  func(c *Config) { c.Periodogram.FAPMethod, c.Periodogram.Bootstraps = "bootstrap", 0 },
			wantErr: true,
		},
		{
			name:    "unknown normalization",
			mutate:  func(c *Config) { c.Periodogram.Normalization = "psd" },
			wantErr: true,
		},
		{
			name:    "missing error column",
			mutate:  func(c *Config) { c.Ingest.ErrorColumn = "" },
			wantErr: true,
		},
		{
			name:    "invalid http port",
			mutate:  func(c *Config) { c.Server.HTTPPort = 0 },
			wantErr: true,
		},
		{
			name:    "unknown compression",
			mutate:  func(c *Config) { c.Storage.Compression = "zstd" },
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Sweep.StartPeriod != 0.05 || cfg.Sweep.EndPeriod != 1000 || cfg.Sweep.NumPeriods != 1000 {
		t.Errorf("unexpected period grid: %+v", cfg.Sweep)
	}

	if cfg.Sweep.TargetFAP != 0.001 {
		t.Errorf("Expected target FAP 0.001, got %v", cfg.Sweep.TargetFAP)
	}

	if cfg.Ingest.TimeColumn != "BJD" {
		t.Errorf("Expected time column BJD, got %s", cfg.Ingest.TimeColumn)
	}

	if cfg.Server.HTTPPort != 5560 {
		t.Errorf("Expected HTTP port 5560, got %d", cfg.Server.HTTPPort)
	}

	if cfg.GetServerAddress() != "0.0.0.0:5560" {
		t.Errorf("Expected server address 0.0.0.0:5560, got %s", cfg.GetServerAddress())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "udlc.yaml")
	content := []byte(`
sweep:
  start_period: 1
  end_period: 100
  num_periods: 25
periodogram:
  fap_method: davies
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UDLC_SWEEP_TARGET_FAP", "0.01")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sweep.NumPeriods != 25 || cfg.Sweep.StartPeriod != 1 {
		t.Errorf("file values not applied: %+v", cfg.Sweep)
	}
	if cfg.Sweep.TargetFAP != 0.01 {
		t.Errorf("env override not applied: target_fap=%v", cfg.Sweep.TargetFAP)
	}
	if cfg.Sweep.AmpHigh != 1000 {
		t.Errorf("default not kept: amp_high=%v", cfg.Sweep.AmpHigh)
	}
	if cfg.Periodogram.FAPMethod != "davies" {
		t.Errorf("Expected davies, got %s", cfg.Periodogram.FAPMethod)
	}
	if cfg.Ingest.ValueColumn != "RV_mlc_nzp" {
		t.Errorf("Expected default value column, got %s", cfg.Ingest.ValueColumn)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("sweep:\n  num_periods: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected validation error for num_periods=0")
	}
}
