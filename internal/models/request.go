package models

// SeriesPayload carries an observation series in a request body
type SeriesPayload struct {
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
	Errors []float64 `json:"errors"`
}

// GridSpec describes an evenly spaced period grid, endpoints included
type GridSpec struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// SearchOptions overrides the configured amplitude search. Zero values keep
// the configured defaults.
type SearchOptions struct {
	AmpLow        float64 `json:"amp_low,omitempty"`
	AmpHigh       float64 `json:"amp_high,omitempty"`
	TargetFAP     float64 `json:"target_fap,omitempty"`
	MaxIterations int     `json:"max_iterations,omitempty"`
}

// OracleOptions overrides the configured significance estimate
type OracleOptions struct {
	Method         string  `json:"method,omitempty"`        // baluev, davies, naive, single, bootstrap
	Normalization  string  `json:"normalization,omitempty"` // standard, model, log
	SamplesPerPeak float64 `json:"samples_per_peak,omitempty"`
	NyquistFactor  float64 `json:"nyquist_factor,omitempty"`
	Bootstraps     int     `json:"bootstraps,omitempty"`
	Seed           uint64  `json:"seed,omitempty"`
}

// SearchRequest asks for the detection limit at one period
type SearchRequest struct {
	Series SeriesPayload `json:"series"`
	Period float64       `json:"period"`
	Search SearchOptions `json:"search,omitempty"`
	Oracle OracleOptions `json:"oracle,omitempty"`
}

// SweepRequest asks for detection limits over a period grid. Explicit
// periods take precedence over the grid; with neither, the configured grid
// is used.
type SweepRequest struct {
	Name    string        `json:"name,omitempty"`
	Series  SeriesPayload `json:"series"`
	Periods []float64     `json:"periods,omitempty"`
	Grid    *GridSpec     `json:"grid,omitempty"`
	Search  SearchOptions `json:"search,omitempty"`
	Oracle  OracleOptions `json:"oracle,omitempty"`
}
