package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObservationSeries_Validation(t *testing.T) {
	tests := []struct {
		name    string
		times   []float64
		values  []float64
		errs    []float64
		wantErr error
	}{
		{
			name:   "valid series",
			times:  []float64{0, 1, 2},
			values: []float64{1, 2, 3},
			errs:   []float64{0.1, 0.1, 0.1},
		},
		{
			name:    "empty series",
			wantErr: ErrEmptySeries,
		},
		{
			name:    "length mismatch",
			times:   []float64{0, 1, 2},
			values:  []float64{1, 2},
			errs:    []float64{0.1, 0.1, 0.1},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "zero uncertainty",
			times:   []float64{0, 1},
			values:  []float64{1, 2},
			errs:    []float64{0.1, 0},
			wantErr: ErrNonPositiveError,
		},
		{
			name:    "NaN uncertainty",
			times:   []float64{0, 1},
			values:  []float64{1, 2},
			errs:    []float64{math.NaN(), 1},
			wantErr: ErrNonPositiveError,
		},
		{
			name:    "decreasing times",
			times:   []float64{0, 2, 1},
			values:  []float64{1, 2, 3},
			errs:    []float64{1, 1, 1},
			wantErr: ErrUnsortedTimes,
		},
		{
			name:   "repeated timestamps are allowed",
			times:  []float64{0, 1, 1, 2},
			values: []float64{1, 2, 3, 4},
			errs:   []float64{1, 1, 1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewObservationSeries(tt.times, tt.values, tt.errs)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.times), s.Len())
		})
	}
}

func TestObservationSeries_Relative(t *testing.T) {
	s, err := NewObservationSeries(
		[]float64{2450000.5, 2450001.5, 2450010.0},
		[]float64{0, 0, 0},
		[]float64{1, 1, 1},
	)
	require.NoError(t, err)

	rel := s.Relative()
	assert.InDeltaSlice(t, []float64{0, 1, 9.5}, rel, 1e-9)
	assert.InDelta(t, 9.5, s.Baseline(), 1e-9)
	// original timestamps are untouched
	assert.Equal(t, 2450000.5, s.Times[0])
}

func TestObservationSeries_Statistics(t *testing.T) {
	s := &ObservationSeries{
		Times:  []float64{0, 1, 2, 3},
		Values: []float64{1, 2, 3, 4},
		Errors: []float64{1, 1, 1, 0.5},
	}

	assert.InDelta(t, 2.5, s.Mean(), 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev(), 1e-12)
	// weights 1,1,1,4 -> (1+2+3+16)/7
	assert.InDelta(t, 22.0/7.0, s.WeightedMean(), 1e-12)
}
