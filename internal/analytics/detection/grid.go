package detection

import (
	"fmt"
	"math"
)

// Linspace returns n evenly spaced values over [start, end], endpoints included
func Linspace(start, end float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (end - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = end
	return out
}

// PeriodGrid builds the trial periods of a sweep. Every period must be finite
// and positive.
func PeriodGrid(start, end float64, n int) ([]float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: need at least one period, got %d", ErrInvalidGrid, n)
	}
	if !(start > 0) || !(end > 0) || math.IsInf(start, 0) || math.IsInf(end, 0) {
		return nil, fmt.Errorf("%w: bounds must be finite and positive, got [%v, %v]", ErrInvalidGrid, start, end)
	}
	if end < start {
		return nil, fmt.Errorf("%w: end %v before start %v", ErrInvalidGrid, end, start)
	}
	return Linspace(start, end, n), nil
}
