package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/udlc")
	}

	setDefaults(v)

	// UDLC_SWEEP_TARGET_FAP overrides sweep.target_fap
	v.SetEnvPrefix("UDLC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults mirrors DefaultConfig so every key is known to viper's env lookup
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("sweep.start_period", d.Sweep.StartPeriod)
	v.SetDefault("sweep.end_period", d.Sweep.EndPeriod)
	v.SetDefault("sweep.num_periods", d.Sweep.NumPeriods)
	v.SetDefault("sweep.amp_low", d.Sweep.AmpLow)
	v.SetDefault("sweep.amp_high", d.Sweep.AmpHigh)
	v.SetDefault("sweep.target_fap", d.Sweep.TargetFAP)
	v.SetDefault("sweep.max_iterations", d.Sweep.MaxIterations)
	v.SetDefault("sweep.precision", d.Sweep.Precision)
	v.SetDefault("sweep.workers", d.Sweep.Workers)

	v.SetDefault("periodogram.fap_method", d.Periodogram.FAPMethod)
	v.SetDefault("periodogram.normalization", d.Periodogram.Normalization)
	v.SetDefault("periodogram.samples_per_peak", d.Periodogram.SamplesPerPeak)
	v.SetDefault("periodogram.nyquist_factor", d.Periodogram.NyquistFactor)
	v.SetDefault("periodogram.maximum_frequency", d.Periodogram.MaximumFrequency)
	v.SetDefault("periodogram.bootstraps", d.Periodogram.Bootstraps)
	v.SetDefault("periodogram.seed", d.Periodogram.Seed)

	v.SetDefault("ingest.time_column", d.Ingest.TimeColumn)
	v.SetDefault("ingest.value_column", d.Ingest.ValueColumn)
	v.SetDefault("ingest.error_column", d.Ingest.ErrorColumn)
	v.SetDefault("ingest.input_dir", d.Ingest.InputDir)
	v.SetDefault("ingest.output_dir", d.Ingest.OutputDir)
	v.SetDefault("ingest.output_suffix", d.Ingest.OutputSuffix)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.max_sync_periods", d.Server.MaxSyncPeriods)

	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.subject", d.Queue.Subject)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.compression", d.Storage.Compression)

	v.SetDefault("auth.enabled", d.Auth.Enabled)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepConfig{
			StartPeriod:   0.05,
			EndPeriod:     1000,
			NumPeriods:    1000,
			AmpLow:        0.05,
			AmpHigh:       1000,
			TargetFAP:     0.001,
			MaxIterations: 100,
			Precision:     6,
		},
		Periodogram: PeriodogramConfig{
			FAPMethod:      "baluev",
			Normalization:  "standard",
			SamplesPerPeak: 5,
			NyquistFactor:  5,
			Bootstraps:     1000,
		},
		Ingest: IngestConfig{
			TimeColumn:   "BJD",
			ValueColumn:  "RV_mlc_nzp",
			ErrorColumn:  "e_RV_mlc_nzp",
			InputDir:     "NonDetections",
			OutputDir:    "UpperLimits",
			OutputSuffix: "UpperDetectionLimits.csv",
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			HTTPPort:       5560,
			MaxSyncPeriods: 50,
		},
		Queue: QueueConfig{
			Type:         "memory",
			URL:          "nats://localhost:4222",
			Subject:      "udlc.jobs",
			RedisStream:  "udlc",
			RedisGroup:   "udlc-group",
			KafkaGroupID: "udlc-workers",
		},
		Storage: StorageConfig{
			DataDir:     "./data",
			Compression: "snappy",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stderr",
		},
	}
}
