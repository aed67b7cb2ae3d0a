package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/soltixdb/udlc/internal/analytics/detection"
)

// WriteOptions selects optional columns of a result table
type WriteOptions struct {
	// Detail adds State, Iterations and Error columns
	Detail bool
}

var (
	baseHeader   = []string{"Period", "Amplitude", "FAP"}
	detailHeader = []string{"State", "Iterations", "Error"}
)

// WriteTable writes a sweep table as CSV, one row per period in table order
func WriteTable(w io.Writer, table detection.Table, opts WriteOptions) error {
	cw := csv.NewWriter(w)

	header := baseHeader
	if opts.Detail {
		header = append(append([]string{}, baseHeader...), detailHeader...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, 0, len(header))
	for _, r := range table {
		record = append(record[:0], formatFloat(r.Period), formatFloat(r.Amplitude), formatFloat(r.FAP))
		if opts.Detail {
			record = append(record, string(r.State), strconv.Itoa(r.Iterations), r.Error)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadTable parses a table written by WriteTable. Tables without detail
// columns read back with an empty state.
func ReadTable(r io.Reader) (detection.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrNoRows)
	}

	idx, err := columnIndexes(records[0], baseHeader...)
	if err != nil {
		return nil, err
	}
	detail, derr := columnIndexes(records[0], detailHeader...)
	hasDetail := derr == nil

	table := make(detection.Table, 0, len(records)-1)
	for n, rec := range records[1:] {
		var vals [3]float64
		for k, i := range idx {
			if i >= len(rec) {
				return nil, fmt.Errorf("row %d: missing %s", n+1, baseHeader[k])
			}
			if vals[k], err = strconv.ParseFloat(rec[i], 64); err != nil {
				return nil, fmt.Errorf("row %d %s: %w", n+1, baseHeader[k], err)
			}
		}
		row := detection.Result{Period: vals[0], Amplitude: vals[1], FAP: vals[2]}
		if hasDetail && len(rec) == len(records[0]) {
			row.State = detection.State(rec[detail[0]])
			if row.Iterations, err = strconv.Atoi(rec[detail[1]]); err != nil {
				return nil, fmt.Errorf("row %d Iterations: %w", n+1, err)
			}
			row.Error = rec[detail[2]]
		}
		table = append(table, row)
	}
	return table, nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
