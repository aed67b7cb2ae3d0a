package periodogram

import (
	"fmt"
	"math"
)

// Config holds configuration for significance estimation
type Config struct {
	Method           string        // FAP method name (baluev, davies, naive, single, bootstrap)
	Normalization    Normalization // Power normalization
	SamplesPerPeak   float64       // Grid oversampling used to derive the maximum frequency
	NyquistFactor    float64       // Multiple of the average Nyquist frequency searched
	MaximumFrequency float64       // Explicit upper frequency; 0 derives it from the sampling
	Bootstraps       int           // Resampling rounds for the bootstrap method
	Seed             uint64        // Seed for the bootstrap method
}

// DefaultConfig returns the default significance configuration
func DefaultConfig() Config {
	return Config{
		Method:         "baluev",
		Normalization:  NormalizationStandard,
		SamplesPerPeak: 5,
		NyquistFactor:  5,
		Bootstraps:     1000,
	}
}

// Oracle computes the false-alarm probability of the periodogram power at a
// given frequency. It holds no mutable state and is safe for concurrent use.
type Oracle struct {
	config Config
	method FAPMethod
}

// NewOracle creates an oracle, resolving the configured FAP method
func NewOracle(cfg Config) (*Oracle, error) {
	defaults := DefaultConfig()
	if cfg.Method == "" {
		cfg.Method = defaults.Method
	}
	if cfg.SamplesPerPeak <= 0 {
		cfg.SamplesPerPeak = defaults.SamplesPerPeak
	}
	if cfg.NyquistFactor <= 0 {
		cfg.NyquistFactor = defaults.NyquistFactor
	}
	if cfg.Bootstraps <= 0 {
		cfg.Bootstraps = defaults.Bootstraps
	}
	norm, err := ParseNormalization(string(cfg.Normalization))
	if err != nil {
		return nil, err
	}
	cfg.Normalization = norm

	method, err := GetMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	return &Oracle{config: cfg, method: method}, nil
}

// Config returns the resolved configuration
func (o *Oracle) Config() Config {
	return o.config
}

// Method returns the resolved FAP method name
func (o *Oracle) Method() string {
	return o.method.Name()
}

// FAP returns the false-alarm probability of the periodogram power at frequency
func (o *Oracle) FAP(times, values, errs []float64, frequency float64) (float64, error) {
	z, err := Power(times, values, errs, frequency, o.config.Normalization)
	if err != nil {
		return 0, err
	}
	fmax, err := o.MaxFrequency(times)
	if err != nil {
		return 0, err
	}

	fap, err := o.method.FAP(z, FAPInput{
		Times:         times,
		Values:        values,
		Errors:        errs,
		MaxFrequency:  fmax,
		Normalization: o.config.Normalization,
		Config:        o.config,
	})
	if err != nil {
		return 0, fmt.Errorf("%s FAP: %w", o.method.Name(), err)
	}
	if math.IsNaN(fap) {
		return 1, nil
	}
	return fap, nil
}

// MaxFrequency returns the top of the search band used by the significance estimate
func (o *Oracle) MaxFrequency(times []float64) (float64, error) {
	grid, err := Autofrequency(times, o.config.SamplesPerPeak, o.config.NyquistFactor, o.config.MaximumFrequency)
	if err != nil {
		return 0, err
	}
	return grid.Max(), nil
}

// Periodogram computes the power spectrum over the automatic grid
func (o *Oracle) Periodogram(times, values, errs []float64) (freqs, power []float64, err error) {
	grid, err := Autofrequency(times, o.config.SamplesPerPeak, o.config.NyquistFactor, o.config.MaximumFrequency)
	if err != nil {
		return nil, nil, err
	}
	freqs = grid.Frequencies()
	power, err = Spectrum(times, values, errs, freqs, o.config.Normalization)
	if err != nil {
		return nil, nil, err
	}
	return freqs, power, nil
}
