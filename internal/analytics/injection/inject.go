// Package injection adds synthetic sinusoidal signals to observed series.
//
// The trial signal is amplitude·sin(2π·t/period). Callers phase the signal by
// passing timestamps measured from the first observation; the zero point is a
// convention that keeps the sine argument small for large absolute epochs.
package injection

import (
	"errors"
	"fmt"
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

var (
	// ErrInvalidPeriod is returned for periods that are not finite and positive
	ErrInvalidPeriod = errors.New("period must be finite and positive")
	// ErrLengthMismatch is returned when values and times differ in length
	ErrLengthMismatch = errors.New("values and times must have equal length")
)

// Sinusoid returns amplitude·sin(2π·t/period) evaluated at each timestamp
func Sinusoid(times []float64, amplitude, period float64) ([]float64, error) {
	if err := checkPeriod(period); err != nil {
		return nil, err
	}

	out := make([]float64, len(times))
	if amplitude == 0 {
		return out, nil
	}

	omega := 2 * math.Pi / period
	for i, t := range times {
		out[i] = math.Sin(omega * t)
	}
	vecmath.ScaleBlock(out, out, amplitude)
	return out, nil
}

// Inject returns values[i] + amplitude·sin(2π·times[i]/period) as a new slice.
// Neither input slice is modified.
func Inject(values, times []float64, amplitude, period float64) ([]float64, error) {
	if len(values) != len(times) {
		return nil, fmt.Errorf("%w: values=%d times=%d", ErrLengthMismatch, len(values), len(times))
	}

	signal, err := Sinusoid(times, amplitude, period)
	if err != nil {
		return nil, err
	}

	vecmath.AddBlockInPlace(signal, values)
	return signal, nil
}

func checkPeriod(period float64) error {
	if !(period > 0) || math.IsInf(period, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidPeriod, period)
	}
	return nil
}
