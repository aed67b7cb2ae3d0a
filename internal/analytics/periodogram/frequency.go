package periodogram

import (
	"fmt"
	"math"
	"sort"
)

// Grid describes the frequency grid a periodogram is searched over
type Grid struct {
	Min  float64
	Step float64
	N    int
}

// Max returns the largest frequency on the grid
func (g Grid) Max() float64 {
	if g.N == 0 {
		return 0
	}
	return g.Min + g.Step*float64(g.N-1)
}

// Frequencies materializes the grid
func (g Grid) Frequencies() []float64 {
	out := make([]float64, g.N)
	for i := range out {
		out[i] = g.Min + g.Step*float64(i)
	}
	return out
}

// Autofrequency derives the default grid from the sampling of the series:
// step 1/(baseline·samplesPerPeak), starting at half a step and extending to
// nyquistFactor times the average Nyquist frequency. maxFrequency > 0 overrides
// the upper limit.
func Autofrequency(times []float64, samplesPerPeak, nyquistFactor, maxFrequency float64) (Grid, error) {
	if len(times) < 2 {
		return Grid{}, ErrTooFewPoints
	}
	baseline := times[len(times)-1] - times[0]
	if !(baseline > 0) {
		return Grid{}, ErrZeroBaseline
	}
	if !(samplesPerPeak > 0) || !(nyquistFactor > 0) {
		return Grid{}, fmt.Errorf("samples per peak and nyquist factor must be positive (got %v, %v)",
			samplesPerPeak, nyquistFactor)
	}

	df := 1 / baseline / samplesPerPeak
	fmin := 0.5 * df
	fmax := maxFrequency
	if fmax <= 0 {
		avgNyquist := 0.5 * float64(len(times)) / baseline
		fmax = nyquistFactor * avgNyquist
	}

	n := 1 + int(math.Round((fmax-fmin)/df))
	if n < 1 {
		n = 1
	}
	return Grid{Min: fmin, Step: df, N: n}, nil
}

// Peak is a local maximum of a periodogram
type Peak struct {
	Frequency float64 `json:"frequency"`
	Period    float64 `json:"period"`
	Power     float64 `json:"power"`
}

// TopPeaks returns up to k local maxima of power, strongest first
func TopPeaks(freqs, power []float64, k int) []Peak {
	var peaks []Peak
	for i := range power {
		left := i == 0 || power[i] >= power[i-1]
		right := i == len(power)-1 || power[i] > power[i+1]
		if left && right {
			peaks = append(peaks, Peak{Frequency: freqs[i], Period: 1 / freqs[i], Power: power[i]})
		}
	}

	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].Power > peaks[j].Power })
	if k > 0 && len(peaks) > k {
		peaks = peaks[:k]
	}
	return peaks
}
