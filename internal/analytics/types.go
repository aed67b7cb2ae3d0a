// Package analytics provides the observation types shared by the detection-limit
// packages (injection, periodogram, detection).
package analytics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrEmptySeries is returned when a series has no observations
	ErrEmptySeries = errors.New("observation series is empty")
	// ErrLengthMismatch is returned when times, values and errors differ in length
	ErrLengthMismatch = errors.New("times, values and errors must have equal length")
	// ErrNonPositiveError is returned when an uncertainty is zero, negative or NaN
	ErrNonPositiveError = errors.New("uncertainties must be positive")
	// ErrUnsortedTimes is returned when timestamps decrease
	ErrUnsortedTimes = errors.New("timestamps must be non-decreasing")
)

// ObservationSeries is a radial-velocity time series: timestamps, observed values
// and per-point uncertainties. The series is treated as read-only by every consumer.
type ObservationSeries struct {
	Times  []float64
	Values []float64
	Errors []float64
}

// NewObservationSeries builds a series and validates it
func NewObservationSeries(times, values, errs []float64) (*ObservationSeries, error) {
	s := &ObservationSeries{Times: times, Values: values, Errors: errs}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the structural invariants of the series
func (s *ObservationSeries) Validate() error {
	if s == nil || len(s.Times) == 0 {
		return ErrEmptySeries
	}
	if len(s.Values) != len(s.Times) || len(s.Errors) != len(s.Times) {
		return fmt.Errorf("%w: times=%d values=%d errors=%d",
			ErrLengthMismatch, len(s.Times), len(s.Values), len(s.Errors))
	}
	for i, e := range s.Errors {
		if !(e > 0) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: index %d has %v", ErrNonPositiveError, i, e)
		}
	}
	for i := 1; i < len(s.Times); i++ {
		if s.Times[i] < s.Times[i-1] {
			return fmt.Errorf("%w: index %d (%v < %v)", ErrUnsortedTimes, i, s.Times[i], s.Times[i-1])
		}
	}
	return nil
}

// Len returns the number of observations
func (s *ObservationSeries) Len() int {
	return len(s.Times)
}

// Start returns the first timestamp
func (s *ObservationSeries) Start() float64 {
	if len(s.Times) == 0 {
		return 0
	}
	return s.Times[0]
}

// Baseline returns the time span covered by the series
func (s *ObservationSeries) Baseline() float64 {
	if len(s.Times) < 2 {
		return 0
	}
	return s.Times[len(s.Times)-1] - s.Times[0]
}

// Relative returns timestamps measured from the first observation.
// Injected signals are phased against this zero point.
func (s *ObservationSeries) Relative() []float64 {
	rel := make([]float64, len(s.Times))
	t0 := s.Start()
	for i, t := range s.Times {
		rel[i] = t - t0
	}
	return rel
}

// Weights returns the inverse-variance weights 1/σ²
func (s *ObservationSeries) Weights() []float64 {
	w := make([]float64, len(s.Errors))
	for i, e := range s.Errors {
		w[i] = 1 / (e * e)
	}
	return w
}

// Mean calculates the unweighted mean of the values
func (s *ObservationSeries) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// WeightedMean calculates the inverse-variance weighted mean of the values
func (s *ObservationSeries) WeightedMean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, s.Weights())
}

// StdDev calculates the sample standard deviation of the values
func (s *ObservationSeries) StdDev() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.StdDev(s.Values, nil)
}
