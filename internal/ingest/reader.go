// Package ingest reads radial-velocity CSV files and writes detection-limit
// tables.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/config"
)

var (
	// ErrMissingColumn is returned when a required header is absent
	ErrMissingColumn = errors.New("required column not found")
	// ErrNoRows is returned when a file has a header but no usable rows
	ErrNoRows = errors.New("no observations")
)

// ColumnSpec names the CSV columns holding time, value and uncertainty
type ColumnSpec struct {
	Time  string
	Value string
	Error string
}

// DefaultColumnSpec returns the column names of the survey exports
func DefaultColumnSpec() ColumnSpec {
	return ColumnSpec{Time: "BJD", Value: "RV_mlc_nzp", Error: "e_RV_mlc_nzp"}
}

// ColumnSpecFromConfig builds a ColumnSpec from ingest configuration
func ColumnSpecFromConfig(cfg config.IngestConfig) ColumnSpec {
	return ColumnSpec{Time: cfg.TimeColumn, Value: cfg.ValueColumn, Error: cfg.ErrorColumn}
}

// ReadSeries reads a header-named CSV into an observation series.
// Rows with an empty or NaN field in any selected column are skipped. Rows
// are ordered by time before the series is validated.
func ReadSeries(r io.Reader, spec ColumnSpec) (*analytics.ObservationSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrNoRows)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	idx, err := columnIndexes(header, spec.Time, spec.Value, spec.Error)
	if err != nil {
		return nil, err
	}

	type row struct{ t, v, e float64 }
	var rows []row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var vals [3]float64
		skip := false
		for k, i := range idx {
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				skip = true
				break
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			if math.IsNaN(f) {
				skip = true
				break
			}
			vals[k] = f
		}
		if !skip {
			rows = append(rows, row{vals[0], vals[1], vals[2]})
		}
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].t < rows[j].t })

	times := make([]float64, len(rows))
	values := make([]float64, len(rows))
	errs := make([]float64, len(rows))
	for i, r := range rows {
		times[i], values[i], errs[i] = r.t, r.v, r.e
	}
	return analytics.NewObservationSeries(times, values, errs)
}

// ReadSeriesFile opens path and reads it with ReadSeries
func ReadSeriesFile(path string, spec ColumnSpec) (*analytics.ObservationSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	s, err := ReadSeries(f, spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func columnIndexes(header []string, names ...string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		// first occurrence wins; a BOM on the first header is tolerated
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	out := make([]int, len(names))
	for k, name := range names {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		out[k] = i
	}
	return out, nil
}

// ListInputs returns the CSV files of dir sorted by name
func ListInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

// OutputName returns the result file name for an input file: the input's base
// name without extension followed by suffix
func OutputName(input, suffix string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix
}
