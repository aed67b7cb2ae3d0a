package detection

import (
	"context"
	"fmt"
	"math"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/analytics/injection"
)

// SearchConfig holds configuration for the amplitude search
type SearchConfig struct {
	AmpLow        float64 // Lower edge of the amplitude bracket
	AmpHigh       float64 // Upper edge of the amplitude bracket
	TargetFAP     float64 // Detection threshold; the accepted band is [target, 1.5·target]
	MaxIterations int     // Hard cap on oracle evaluations per period
	Precision     int     // Decimal places used when comparing against the original bounds; 0 rounds to whole units

	// OnIteration, if set, observes every evaluated bracket. It runs on the
	// searching goroutine and must not block.
	OnIteration func(SearchState)
}

// DefaultSearchConfig returns default search configuration
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		AmpLow:        0.05,
		AmpHigh:       1000,
		TargetFAP:     0.001,
		MaxIterations: 100,
		Precision:     6,
	}
}

// Validate checks the bracket and the target
func (c SearchConfig) Validate() error {
	if math.IsNaN(c.AmpLow) || math.IsNaN(c.AmpHigh) || math.IsInf(c.AmpLow, 0) || math.IsInf(c.AmpHigh, 0) {
		return fmt.Errorf("%w: [%v, %v]", ErrEmptyBracket, c.AmpLow, c.AmpHigh)
	}
	if c.AmpLow < 0 || c.AmpLow > c.AmpHigh {
		return fmt.Errorf("%w: [%v, %v]", ErrEmptyBracket, c.AmpLow, c.AmpHigh)
	}
	if !(c.TargetFAP > 0 && c.TargetFAP < 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidTarget, c.TargetFAP)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.Precision < 0 || c.Precision > 15 {
		return fmt.Errorf("%w: got %d", ErrInvalidPrecision, c.Precision)
	}
	return nil
}

// BandUpper returns the upper edge of the accepted FAP band
func (c SearchConfig) BandUpper() float64 {
	return c.TargetFAP + c.TargetFAP/2
}

func (c SearchConfig) withDefaults() SearchConfig {
	d := DefaultSearchConfig()
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	return c
}

// SearchAmplitude finds, for one period, the injected amplitude whose FAP falls
// in [target, 1.5·target].
//
// Every trial injects into the original values, never into a previous trial.
// When the bracket collapses onto AmpLow or AmpHigh the search stops with
// StateConvergedAtBoundary; after MaxIterations evaluations it stops with
// StateExhausted and reports the evaluated amplitude whose FAP came closest to
// the band. Invalid input and oracle failures yield a StateFailed result together
// with a non-nil error.
func SearchAmplitude(ctx context.Context, series *analytics.ObservationSeries, period float64,
	oracle Oracle, cfg SearchConfig,
) (Result, error) {
	failed := func(err error) (Result, error) {
		return Result{Period: period, FAP: math.NaN(), Amplitude: math.NaN(), State: StateFailed, Error: err.Error()}, err
	}

	if !(period > 0) || math.IsInf(period, 0) {
		return failed(fmt.Errorf("%w: got %v", ErrInvalidPeriod, period))
	}
	if err := cfg.Validate(); err != nil {
		return failed(err)
	}
	if oracle == nil {
		return failed(ErrNilOracle)
	}
	if err := series.Validate(); err != nil {
		return failed(fmt.Errorf("%w: %v", ErrInvalidSeries, err))
	}

	return newSearch(series, period, oracle, cfg.withDefaults()).run(ctx)
}

// search holds the bracket of one period; it is never shared
type search struct {
	series    *analytics.ObservationSeries
	relative  []float64
	period    float64
	frequency float64
	oracle    Oracle
	cfg       SearchConfig

	lower float64
	upper float64

	bestAmp  float64
	bestFAP  float64
	bestDist float64
}

func newSearch(series *analytics.ObservationSeries, period float64, oracle Oracle, cfg SearchConfig) *search {
	return &search{
		series:    series,
		relative:  series.Relative(),
		period:    period,
		frequency: 1 / period,
		oracle:    oracle,
		cfg:       cfg,
		lower:     cfg.AmpLow,
		upper:     cfg.AmpHigh,
		bestAmp:   math.NaN(),
		bestFAP:   math.NaN(),
		bestDist:  math.Inf(1),
	}
}

func (s *search) run(ctx context.Context) (Result, error) {
	amp := (s.lower + s.upper) / 2

	for iter := 1; iter <= s.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return s.fail(iter-1, err)
		}

		fap, err := s.evaluate(amp)
		if err != nil {
			return s.fail(iter-1, fmt.Errorf("period %g amplitude %g: %w", s.period, amp, err))
		}
		s.track(amp, fap)

		state := StateSearching
		lower, upper := s.lower, s.upper
		switch {
		case fap < s.cfg.TargetFAP:
			// detected too confidently: the amplitude is too large
			if s.atBoundary(amp) {
				state = StateConvergedAtBoundary
			} else {
				s.upper = amp
			}
		case fap > s.cfg.BandUpper():
			// not detected: the amplitude is too small
			if s.atBoundary(amp) {
				state = StateConvergedAtBoundary
			} else {
				s.lower = amp
			}
		default:
			state = StateConvergedOnBand
		}

		if s.cfg.OnIteration != nil {
			s.cfg.OnIteration(SearchState{
				Iteration: iter,
				Lower:     lower,
				Upper:     upper,
				Amplitude: amp,
				FAP:       fap,
				State:     state,
			})
		}

		if state.Terminal() {
			return Result{Period: s.period, Amplitude: amp, FAP: fap, State: state, Iterations: iter}, nil
		}

		next := (s.lower + s.upper) / 2
		if next == amp {
			// the bracket can no longer shrink in floating point
			return s.exhausted(iter), nil
		}
		amp = next
	}

	return s.exhausted(s.cfg.MaxIterations), nil
}

func (s *search) evaluate(amp float64) (float64, error) {
	values, err := injection.Inject(s.series.Values, s.relative, amp, s.period)
	if err != nil {
		return 0, err
	}
	fap, err := s.oracle.FAP(s.series.Times, values, s.series.Errors, s.frequency)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(fap) {
		return 0, fmt.Errorf("oracle returned NaN")
	}
	return fap, nil
}

// atBoundary compares the trial amplitude with the original bracket edges
func (s *search) atBoundary(amp float64) bool {
	a := roundTo(amp, s.cfg.Precision)
	return a == roundTo(s.cfg.AmpHigh, s.cfg.Precision) || a == roundTo(s.cfg.AmpLow, s.cfg.Precision)
}

// track remembers the evaluation closest to the band in log-FAP distance
func (s *search) track(amp, fap float64) {
	var dist float64
	floor := math.SmallestNonzeroFloat64
	switch {
	case fap < s.cfg.TargetFAP:
		dist = math.Log(s.cfg.TargetFAP) - math.Log(math.Max(fap, floor))
	case fap > s.cfg.BandUpper():
		dist = math.Log(fap) - math.Log(s.cfg.BandUpper())
	}
	if dist < s.bestDist {
		s.bestDist = dist
		s.bestAmp = amp
		s.bestFAP = fap
	}
}

func (s *search) exhausted(iterations int) Result {
	return Result{
		Period:     s.period,
		Amplitude:  s.bestAmp,
		FAP:        s.bestFAP,
		State:      StateExhausted,
		Iterations: iterations,
	}
}

func (s *search) fail(iterations int, err error) (Result, error) {
	return Result{
		Period:     s.period,
		Amplitude:  s.bestAmp,
		FAP:        s.bestFAP,
		State:      StateFailed,
		Iterations: iterations,
		Error:      err.Error(),
	}, err
}

func roundTo(x float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(x*scale) / scale
}
