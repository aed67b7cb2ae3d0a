package config

import (
	"fmt"
	"strings"
)

// Config represents the complete application configuration
type Config struct {
	Sweep       SweepConfig       `mapstructure:"sweep"`
	Periodogram PeriodogramConfig `mapstructure:"periodogram"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Server      ServerConfig      `mapstructure:"server"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// SweepConfig controls the period grid and the amplitude search
type SweepConfig struct {
	StartPeriod   float64 `mapstructure:"start_period"`   // First trial period in days
	EndPeriod     float64 `mapstructure:"end_period"`     // Last trial period in days
	NumPeriods    int     `mapstructure:"num_periods"`    // Evenly spaced grid size, endpoints included
	AmpLow        float64 `mapstructure:"amp_low"`        // Lower edge of the amplitude bracket
	AmpHigh       float64 `mapstructure:"amp_high"`       // Upper edge of the amplitude bracket
	TargetFAP     float64 `mapstructure:"target_fap"`     // Detection threshold; band is [target, 1.5·target]
	MaxIterations int     `mapstructure:"max_iterations"` // Oracle evaluations per period before giving up
	Precision     int     `mapstructure:"precision"`      // Decimals used by the boundary test
	Workers       int     `mapstructure:"workers"`        // Concurrent period searches (0 = GOMAXPROCS)
}

// PeriodogramConfig selects how false-alarm probabilities are estimated
type PeriodogramConfig struct {
	FAPMethod        string  `mapstructure:"fap_method"`        // baluev, davies, naive, single, bootstrap
	Normalization    string  `mapstructure:"normalization"`     // standard, model, log
	SamplesPerPeak   float64 `mapstructure:"samples_per_peak"`  // Frequency grid oversampling
	NyquistFactor    float64 `mapstructure:"nyquist_factor"`    // Multiple of the average Nyquist frequency
	MaximumFrequency float64 `mapstructure:"maximum_frequency"` // Explicit maximum frequency (0 = derived)
	Bootstraps       int     `mapstructure:"bootstraps"`        // Resampling rounds for the bootstrap method
	Seed             uint64  `mapstructure:"seed"`              // Bootstrap seed
}

// IngestConfig describes the input CSV layout and the batch directories
type IngestConfig struct {
	TimeColumn   string `mapstructure:"time_column"`
	ValueColumn  string `mapstructure:"value_column"`
	ErrorColumn  string `mapstructure:"error_column"`
	InputDir     string `mapstructure:"input_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	OutputSuffix string `mapstructure:"output_suffix"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
	// MaxSyncPeriods caps the grid size accepted by synchronous endpoints
	MaxSyncPeriods int `mapstructure:"max_sync_periods"`
}

// QueueConfig represents message queue configuration for sweep jobs
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // Queue type: memory (default), nats, redis, kafka
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication
	Subject  string `mapstructure:"subject"`  // Subject/topic carrying sweep jobs

	// Redis-specific options
	RedisDB       int    `mapstructure:"redis_db"`       // Redis database number (default: 0)
	RedisStream   string `mapstructure:"redis_stream"`   // Redis stream prefix (default: "udlc")
	RedisGroup    string `mapstructure:"redis_group"`    // Redis consumer group (default: "udlc-group")
	RedisConsumer string `mapstructure:"redis_consumer"` // Redis consumer name (default: hostname)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// StorageConfig represents result-table storage configuration
type StorageConfig struct {
	DataDir     string `mapstructure:"data_dir"`
	Compression string `mapstructure:"compression"` // snappy or none
}

// AuthConfig represents API key authentication for the HTTP service
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"` // Keys shorter than 32 characters are ignored
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Sweep.Validate(); err != nil {
		return fmt.Errorf("sweep config: %w", err)
	}

	if err := c.Periodogram.Validate(); err != nil {
		return fmt.Errorf("periodogram config: %w", err)
	}

	if err := c.Ingest.Validate(); err != nil {
		return fmt.Errorf("ingest config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates sweep configuration
func (c *SweepConfig) Validate() error {
	if c.StartPeriod <= 0 || c.EndPeriod <= 0 {
		return fmt.Errorf("periods must be positive: start=%v end=%v", c.StartPeriod, c.EndPeriod)
	}
	if c.EndPeriod < c.StartPeriod {
		return fmt.Errorf("end_period %v is before start_period %v", c.EndPeriod, c.StartPeriod)
	}
	if c.NumPeriods < 1 {
		return fmt.Errorf("num_periods must be at least 1, got %d", c.NumPeriods)
	}
	if c.AmpLow < 0 || c.AmpHigh < c.AmpLow {
		return fmt.Errorf("invalid amplitude bracket [%v, %v]", c.AmpLow, c.AmpHigh)
	}
	if c.TargetFAP <= 0 || c.TargetFAP >= 1 {
		return fmt.Errorf("target_fap must be in (0, 1), got %v", c.TargetFAP)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.Precision < 0 || c.Precision > 15 {
		return fmt.Errorf("precision must be between 0 and 15, got %d", c.Precision)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// Validate validates periodogram configuration
func (c *PeriodogramConfig) Validate() error {
	validMethods := map[string]bool{"baluev": true, "davies": true, "naive": true, "single": true, "bootstrap": true}
	if !validMethods[strings.ToLower(c.FAPMethod)] {
		return fmt.Errorf("invalid fap_method: %s", c.FAPMethod)
	}

	validNorms := map[string]bool{"standard": true, "model": true, "log": true}
	if !validNorms[strings.ToLower(c.Normalization)] {
		return fmt.Errorf("invalid normalization: %s", c.Normalization)
	}

	if c.SamplesPerPeak <= 0 {
		return fmt.Errorf("samples_per_peak must be positive")
	}
	if c.NyquistFactor <= 0 {
		return fmt.Errorf("nyquist_factor must be positive")
	}
	if c.MaximumFrequency < 0 {
		return fmt.Errorf("maximum_frequency must not be negative")
	}
	if strings.EqualFold(c.FAPMethod, "bootstrap") && c.Bootstraps < 1 {
		return fmt.Errorf("bootstraps must be at least 1 for the bootstrap method")
	}
	return nil
}

// Validate validates ingest configuration
func (c *IngestConfig) Validate() error {
	if c.TimeColumn == "" || c.ValueColumn == "" || c.ErrorColumn == "" {
		return fmt.Errorf("time_column, value_column and error_column are required")
	}
	if c.OutputSuffix == "" {
		return fmt.Errorf("output_suffix is required")
	}
	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	if c.MaxSyncPeriods < 1 {
		return fmt.Errorf("max_sync_periods must be at least 1")
	}
	return nil
}

// Validate validates storage configuration
func (c *StorageConfig) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	switch strings.ToLower(c.Compression) {
	case "", "none", "snappy":
		return nil
	default:
		return fmt.Errorf("invalid compression: %s", c.Compression)
	}
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	return nil
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}
