package services

import (
	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/analytics/periodogram"
	"github.com/soltixdb/udlc/internal/config"
	"github.com/soltixdb/udlc/internal/models"
)

// SearchConfigFromConfig converts sweep configuration into search settings
func SearchConfigFromConfig(cfg config.SweepConfig) detection.SearchConfig {
	return detection.SearchConfig{
		AmpLow:        cfg.AmpLow,
		AmpHigh:       cfg.AmpHigh,
		TargetFAP:     cfg.TargetFAP,
		MaxIterations: cfg.MaxIterations,
		Precision:     cfg.Precision,
	}
}

// OracleConfigFromConfig converts periodogram configuration into oracle settings
func OracleConfigFromConfig(cfg config.PeriodogramConfig) periodogram.Config {
	return periodogram.Config{
		Method:           cfg.FAPMethod,
		Normalization:    periodogram.Normalization(cfg.Normalization),
		SamplesPerPeak:   cfg.SamplesPerPeak,
		NyquistFactor:    cfg.NyquistFactor,
		MaximumFrequency: cfg.MaximumFrequency,
		Bootstraps:       cfg.Bootstraps,
		Seed:             cfg.Seed,
	}
}

// plan is a validated request ready to run
type plan struct {
	series  *analytics.ObservationSeries
	periods []float64
	search  detection.SearchConfig
	oracle  *periodogram.Oracle
}

func buildSeries(p models.SeriesPayload) (*analytics.ObservationSeries, *ServiceError) {
	s, err := analytics.NewObservationSeries(p.Times, p.Values, p.Errors)
	if err != nil {
		return nil, invalid("invalid series: %v", err)
	}
	return s, nil
}

func buildSearch(base config.SweepConfig, o models.SearchOptions) (detection.SearchConfig, *ServiceError) {
	cfg := SearchConfigFromConfig(base)
	if o.AmpLow != 0 {
		cfg.AmpLow = o.AmpLow
	}
	if o.AmpHigh != 0 {
		cfg.AmpHigh = o.AmpHigh
	}
	if o.TargetFAP != 0 {
		cfg.TargetFAP = o.TargetFAP
	}
	if o.MaxIterations != 0 {
		cfg.MaxIterations = o.MaxIterations
	}
	if err := cfg.Validate(); err != nil {
		return cfg, invalid("invalid search options: %v", err)
	}
	return cfg, nil
}

func buildOracle(base config.PeriodogramConfig, o models.OracleOptions) (*periodogram.Oracle, *ServiceError) {
	cfg := OracleConfigFromConfig(base)
	if o.Method != "" {
		cfg.Method = o.Method
	}
	if o.Normalization != "" {
		cfg.Normalization = periodogram.Normalization(o.Normalization)
	}
	if o.SamplesPerPeak != 0 {
		cfg.SamplesPerPeak = o.SamplesPerPeak
	}
	if o.NyquistFactor != 0 {
		cfg.NyquistFactor = o.NyquistFactor
	}
	if o.Bootstraps != 0 {
		cfg.Bootstraps = o.Bootstraps
	}
	if o.Seed != 0 {
		cfg.Seed = o.Seed
	}

	oracle, err := periodogram.NewOracle(cfg)
	if err != nil {
		return nil, invalid("invalid oracle options: %v", err)
	}
	return oracle, nil
}

func buildPeriods(base config.SweepConfig, explicit []float64, grid *models.GridSpec) ([]float64, *ServiceError) {
	if len(explicit) > 0 {
		// invalid entries become failed rows, not a rejected request
		return append([]float64(nil), explicit...), nil
	}

	start, end, n := base.StartPeriod, base.EndPeriod, base.NumPeriods
	if grid != nil {
		start, end, n = grid.Start, grid.End, grid.Count
	}
	periods, err := detection.PeriodGrid(start, end, n)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return periods, nil
}

func buildSweepPlan(cfg *config.Config, req *models.SweepRequest) (*plan, *ServiceError) {
	series, serr := buildSeries(req.Series)
	if serr != nil {
		return nil, serr
	}
	periods, serr := buildPeriods(cfg.Sweep, req.Periods, req.Grid)
	if serr != nil {
		return nil, serr
	}
	search, serr := buildSearch(cfg.Sweep, req.Search)
	if serr != nil {
		return nil, serr
	}
	oracle, serr := buildOracle(cfg.Periodogram, req.Oracle)
	if serr != nil {
		return nil, serr
	}
	return &plan{series: series, periods: periods, search: search, oracle: oracle}, nil
}
