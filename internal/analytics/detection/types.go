// Package detection estimates radial-velocity detection limits by injection and
// recovery (Zechmeister et al. 2009).
//
// For each trial period a sinusoid is injected into a clean copy of the
// observations, the false-alarm probability of the periodogram power at that
// period is recomputed, and the amplitude is bisected until the FAP lands in the
// band [target, 1.5·target]. A sweep repeats the search independently over a
// period grid.
package detection

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidPeriod is returned when a period is not finite and positive
	ErrInvalidPeriod = errors.New("period must be finite and positive")
	// ErrEmptyBracket is returned when the amplitude bracket is inverted or not finite
	ErrEmptyBracket = errors.New("amplitude bracket is empty")
	// ErrInvalidTarget is returned when the target FAP is outside (0, 1)
	ErrInvalidTarget = errors.New("target FAP must be in (0, 1)")
	// ErrInvalidPrecision is returned when the boundary precision is outside [0, 15]
	ErrInvalidPrecision = errors.New("precision must be between 0 and 15 decimals")
	// ErrInvalidSeries is returned when the observation series fails validation
	ErrInvalidSeries = errors.New("invalid observation series")
	// ErrNilOracle is returned when no FAP oracle is supplied
	ErrNilOracle = errors.New("FAP oracle is required")
	// ErrInvalidGrid is returned for period grids that cannot be built
	ErrInvalidGrid = errors.New("invalid period grid")
)

// Oracle computes the false-alarm probability of the periodogram power at a
// frequency. Implementations must be safe for concurrent use when sweeps run
// with more than one worker.
type Oracle interface {
	FAP(times, values, errs []float64, frequency float64) (float64, error)
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(times, values, errs []float64, frequency float64) (float64, error)

// FAP calls f
func (f OracleFunc) FAP(times, values, errs []float64, frequency float64) (float64, error) {
	return f(times, values, errs, frequency)
}

// State is the lifecycle state of a single amplitude search
type State string

const (
	StateSearching           State = "searching"             // Bracket still shrinking
	StateConvergedOnBand     State = "converged_on_band"     // FAP landed inside [target, 1.5·target]
	StateConvergedAtBoundary State = "converged_at_boundary" // Bracket collapsed onto an original bound
	StateExhausted           State = "exhausted"             // Iteration cap reached outside the band
	StateFailed              State = "failed"                // Search could not run or was cancelled
)

// Terminal reports whether the state ends a search
func (s State) Terminal() bool {
	return s != StateSearching
}

// Reliable reports whether the amplitude is a detection limit inside the tested range
func (s State) Reliable() bool {
	return s == StateConvergedOnBand
}

// SearchState is the transient bracket of one search, exposed to iteration hooks
type SearchState struct {
	Iteration int
	Lower     float64
	Upper     float64
	Amplitude float64
	FAP       float64
	State     State
}

// Result is the outcome of one period's search
type Result struct {
	Period     float64 `json:"period"`
	Amplitude  float64 `json:"amplitude"`
	FAP        float64 `json:"fap"`
	State      State   `json:"state"`
	Iterations int     `json:"iterations"`
	Error      string  `json:"error,omitempty"`
}

// Flagged reports whether the row needs attention (no reliable detection limit)
func (r Result) Flagged() bool {
	return !r.State.Reliable()
}

// MarshalJSON encodes non-finite amplitudes and FAPs of failed rows as null
func (r Result) MarshalJSON() ([]byte, error) {
	type row struct {
		Period     float64  `json:"period"`
		Amplitude  *float64 `json:"amplitude"`
		FAP        *float64 `json:"fap"`
		State      State    `json:"state"`
		Iterations int      `json:"iterations"`
		Error      string   `json:"error,omitempty"`
	}
	return json.Marshal(row{
		Period:     r.Period,
		Amplitude:  finite(r.Amplitude),
		FAP:        finite(r.FAP),
		State:      r.State,
		Iterations: r.Iterations,
		Error:      r.Error,
	})
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (r Result) String() string {
	return fmt.Sprintf("period=%g amplitude=%g fap=%g state=%s", r.Period, r.Amplitude, r.FAP, r.State)
}

// Table is the ordered result of a sweep, one row per period in grid order
type Table []Result

// Len returns the number of rows
func (t Table) Len() int {
	return len(t)
}

// Periods extracts the period column
func (t Table) Periods() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Period
	}
	return out
}

// Amplitudes extracts the amplitude column
func (t Table) Amplitudes() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Amplitude
	}
	return out
}

// Count returns the number of rows in the given state
func (t Table) Count(state State) int {
	n := 0
	for _, r := range t {
		if r.State == state {
			n++
		}
	}
	return n
}

// Flagged returns rows without a reliable detection limit
func (t Table) Flagged() Table {
	var out Table
	for _, r := range t {
		if r.Flagged() {
			out = append(out, r)
		}
	}
	return out
}
