package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/analytics/detection"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRow(w io.Writer, r detection.Result) {
	fmt.Fprintf(w, "period      %g\n", r.Period)
	fmt.Fprintf(w, "amplitude   %s\n", fmtValue(r.Amplitude))
	fmt.Fprintf(w, "fap         %s\n", fmtValue(r.FAP))
	fmt.Fprintf(w, "state       %s\n", r.State)
	fmt.Fprintf(w, "iterations  %d\n", r.Iterations)
	if r.Error != "" {
		fmt.Fprintf(w, "error       %s\n", r.Error)
	}
}

func fmtValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.6g", v)
}

// summary is the report printed after a sweep
type summary struct {
	Input        string   `json:"input,omitempty"`
	Output       string   `json:"output,omitempty"`
	Observations int      `json:"observations"`
	Mean         float64  `json:"rv_mean"`
	WeightedMean float64  `json:"rv_weighted_mean"`
	Scatter      float64  `json:"rv_scatter"`
	Periods      int      `json:"periods"`
	OnBand       int      `json:"converged_on_band"`
	Boundary     int      `json:"converged_at_boundary"`
	Exhausted    int      `json:"exhausted"`
	Failed       int      `json:"failed"`
	MinLimit     *float64 `json:"min_limit,omitempty"`
	MaxLimit     *float64 `json:"max_limit,omitempty"`
}

func summarize(input, output string, series *analytics.ObservationSeries, t detection.Table) summary {
	s := summary{
		Input:        input,
		Output:       output,
		Observations: series.Len(),
		Mean:         series.Mean(),
		WeightedMean: series.WeightedMean(),
		Scatter:      series.StdDev(),
		Periods:      t.Len(),
		OnBand:       t.Count(detection.StateConvergedOnBand),
		Boundary:     t.Count(detection.StateConvergedAtBoundary),
		Exhausted:    t.Count(detection.StateExhausted),
		Failed:       t.Count(detection.StateFailed),
	}

	// failed rows carry NaN
	var limits []float64
	for _, a := range t.Amplitudes() {
		if !math.IsNaN(a) {
			limits = append(limits, a)
		}
	}
	if len(limits) > 0 {
		lo, hi := floats.Min(limits), floats.Max(limits)
		s.MinLimit, s.MaxLimit = &lo, &hi
	}
	return s
}

func (s summary) writeText(w io.Writer) {
	fmt.Fprintf(w, "%s: %d observations (scatter %.3g), %d periods (%d on band, %d at boundary, %d exhausted, %d failed)",
		s.Input, s.Observations, s.Scatter, s.Periods, s.OnBand, s.Boundary, s.Exhausted, s.Failed)
	if s.MinLimit != nil {
		fmt.Fprintf(w, ", limits %.4g to %.4g", *s.MinLimit, *s.MaxLimit)
	}
	if s.Output != "" {
		fmt.Fprintf(w, " -> %s", s.Output)
	}
	fmt.Fprintln(w)
}
