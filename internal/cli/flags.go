package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/analytics/periodogram"
	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/ingest"
	"github.com/soltixdb/udlc/internal/logging"
	"github.com/soltixdb/udlc/internal/services"
)

// searchFlags override the configured search; zero keeps the config value
type searchFlags struct {
	ampLow        float64
	ampHigh       float64
	targetFAP     float64
	maxIterations int
	method        string
	workers       int
}

func addSearchFlags(cmd *cobra.Command, f *searchFlags) {
	cmd.Flags().Float64Var(&f.ampLow, "amp-low", 0, "lower amplitude bound (config: sweep.amp_low)")
	cmd.Flags().Float64Var(&f.ampHigh, "amp-high", 0, "upper amplitude bound (config: sweep.amp_high)")
	cmd.Flags().Float64Var(&f.targetFAP, "target-fap", 0, "target false-alarm probability (config: sweep.target_fap)")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", 0, "bisection cap per period (config: sweep.max_iterations)")
	cmd.Flags().StringVar(&f.method, "method", "", "FAP method: baluev, davies, naive, single, bootstrap")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "concurrent period searches (config: sweep.workers)")
}

func (f *searchFlags) apply(cfg *config.Config) {
	if f.ampLow != 0 {
		cfg.Sweep.AmpLow = f.ampLow
	}
	if f.ampHigh != 0 {
		cfg.Sweep.AmpHigh = f.ampHigh
	}
	if f.targetFAP != 0 {
		cfg.Sweep.TargetFAP = f.targetFAP
	}
	if f.maxIterations != 0 {
		cfg.Sweep.MaxIterations = f.maxIterations
	}
	if f.method != "" {
		cfg.Periodogram.FAPMethod = f.method
	}
	if f.workers != 0 {
		cfg.Sweep.Workers = f.workers
	}
}

// gridFlags override the configured period grid
type gridFlags struct {
	start float64
	end   float64
	count int
}

func addGridFlags(cmd *cobra.Command, f *gridFlags) {
	cmd.Flags().Float64Var(&f.start, "start", 0, "first trial period in days (config: sweep.start_period)")
	cmd.Flags().Float64Var(&f.end, "end", 0, "last trial period in days (config: sweep.end_period)")
	cmd.Flags().IntVarP(&f.count, "num", "n", 0, "number of trial periods (config: sweep.num_periods)")
}

func (f *gridFlags) apply(cfg *config.Config) {
	if f.start != 0 {
		cfg.Sweep.StartPeriod = f.start
	}
	if f.end != 0 {
		cfg.Sweep.EndPeriod = f.end
	}
	if f.count != 0 {
		cfg.Sweep.NumPeriods = f.count
	}
}

func newOracle(cfg *config.Config) (*periodogram.Oracle, error) {
	oracle, err := periodogram.NewOracle(services.OracleConfigFromConfig(cfg.Periodogram))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid periodogram settings", err)
	}
	return oracle, nil
}

func readInput(cfg *config.Config, path string) (*analytics.ObservationSeries, error) {
	series, err := ingest.ReadSeriesFile(path, ingest.ColumnSpecFromConfig(cfg.Ingest))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read observations", err)
	}
	return series, nil
}

// sweepSeries runs the configured grid over one series
func sweepSeries(ctx context.Context, cfg *config.Config, logger *logging.Logger,
	series *analytics.ObservationSeries,
) (detection.Table, error) {
	periods, err := detection.PeriodGrid(cfg.Sweep.StartPeriod, cfg.Sweep.EndPeriod, cfg.Sweep.NumPeriods)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid period grid", err)
	}
	oracle, err := newOracle(cfg)
	if err != nil {
		return nil, err
	}
	search := services.SearchConfigFromConfig(cfg.Sweep)
	if err := search.Validate(); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid search settings", err)
	}

	opts := detection.SweepOptions{Workers: cfg.Sweep.Workers, Logger: logger}
	return detection.Sweep(ctx, series, periods, oracle, search, opts)
}
