package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/udlc/internal/logging"
)

func quietOptions(workers int) SweepOptions {
	return SweepOptions{Workers: workers, Logger: logging.NewNop()}
}

func TestSweep_RowsInPeriodOrder(t *testing.T) {
	periods := []float64{10, 20, 30}
	cfg := DefaultSearchConfig()

	for _, workers := range []int{1, 3} {
		table, err := Sweep(context.Background(), probeSeries(t), periods, scaledOracle(), cfg, quietOptions(workers))
		require.NoError(t, err)
		require.Len(t, table, 3)
		assert.Equal(t, periods, table.Periods())
	}
}

func TestSweep_NoBracketLeakBetweenRows(t *testing.T) {
	// each period's limit scales with the period, so a bracket carried over from
	// the row before would clamp the next row below its true limit
	periods := []float64{10, 20, 30}
	cfg := DefaultSearchConfig()
	lo, hi := math.Log(1/(1.5*cfg.TargetFAP)), math.Log(1/cfg.TargetFAP)

	table, err := Sweep(context.Background(), probeSeries(t), periods, scaledOracle(), cfg, quietOptions(1))
	require.NoError(t, err)
	require.Len(t, table, 3)

	for i, row := range table {
		assert.Equal(t, StateConvergedOnBand, row.State, "row %d", i)
		ratio := row.Amplitude / row.Period
		assert.GreaterOrEqual(t, ratio, lo-1e-9, "row %d", i)
		assert.LessOrEqual(t, ratio, hi+1e-9, "row %d", i)
	}
	assert.Greater(t, table[2].Amplitude, table[0].Amplitude*2)
}

func TestSweep_MatchesIndependentSearches(t *testing.T) {
	series := noiseSeries(t, 100, 1000, 1, 11)
	oracle := realOracle(t)
	cfg := DefaultSearchConfig()
	cfg.AmpHigh = 100
	periods := []float64{13, 27, 41}

	table, err := Sweep(context.Background(), series, periods, oracle, cfg, quietOptions(3))
	require.NoError(t, err)

	for i, p := range periods {
		want, err := SearchAmplitude(context.Background(), series, p, oracle, cfg)
		require.NoError(t, err)
		assert.Equal(t, want, table[i], "period %v", p)
	}
}

func TestSweep_FailedPeriodDoesNotAbort(t *testing.T) {
	periods := []float64{10, -1, 30}

	table, err := Sweep(context.Background(), probeSeries(t), periods, scaledOracle(), DefaultSearchConfig(), quietOptions(2))
	require.NoError(t, err)
	require.Len(t, table, 3)

	assert.Equal(t, StateConvergedOnBand, table[0].State)
	assert.Equal(t, StateFailed, table[1].State)
	assert.Contains(t, table[1].Error, "period")
	assert.Equal(t, StateConvergedOnBand, table[2].State)
	assert.Len(t, table.Flagged(), 1)
	assert.Equal(t, 1, table.Count(StateFailed))
}

func TestSweep_Progress(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []int
	)
	opts := quietOptions(2)
	opts.Progress = func(done, total int, _ Result) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	}

	_, err := Sweep(context.Background(), probeSeries(t), []float64{10, 15, 20, 30}, scaledOracle(), DefaultSearchConfig(), opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := Sweep(ctx, probeSeries(t), []float64{10, 20, 30}, scaledOracle(), DefaultSearchConfig(), quietOptions(1))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, table, 3)
	for i, row := range table {
		assert.Equal(t, StateFailed, row.State, "row %d", i)
		assert.Equal(t, []float64{10, 20, 30}[i], row.Period)
	}
}

func TestSweep_EmptyGrid(t *testing.T) {
	table, err := Sweep(context.Background(), probeSeries(t), nil, scaledOracle(), DefaultSearchConfig(), quietOptions(1))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestSweep_IterationHookSequentialOnly(t *testing.T) {
	tests := []struct {
		name     string
		workers  int
		wantSeen bool
	}{
		{name: "sequential", workers: 1, wantSeen: true},
		{name: "concurrent", workers: 3, wantSeen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen atomic.Int64
			cfg := DefaultSearchConfig()
			cfg.OnIteration = func(SearchState) { seen.Add(1) }

			table, err := Sweep(context.Background(), probeSeries(t), []float64{10, 20, 30}, scaledOracle(), cfg, quietOptions(tt.workers))
			require.NoError(t, err)
			require.Len(t, table, 3)
			if tt.wantSeen {
				assert.Positive(t, seen.Load())
			} else {
				assert.Zero(t, seen.Load())
			}
		})
	}
}

func TestSweep_WarnsOnExhaustedPeriod(t *testing.T) {
	step := OracleFunc(func(_, values, _ []float64, _ float64) (float64, error) {
		if injectedAmplitude(values) < 42.4242 {
			return 1, nil
		}
		return 0, nil
	})
	cfg := DefaultSearchConfig()
	cfg.MaxIterations = 10

	var buf bytes.Buffer
	opts := SweepOptions{Workers: 1, Logger: logging.NewWithWriter(&buf, zerolog.WarnLevel)}
	table, err := Sweep(context.Background(), probeSeries(t), []float64{10}, step, cfg, opts)
	require.NoError(t, err)
	require.Len(t, table, 1)
	require.Equal(t, StateExhausted, table[0].State)

	var warned []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		entry := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["level"] == "warn" {
			warned = append(warned, entry)
		}
	}
	require.Len(t, warned, 1)
	assert.Equal(t, 10.0, warned[0]["period"])
	assert.Equal(t, 10.0, warned[0]["iterations"])
	assert.Equal(t, 1.0, warned[0]["fap"])
	assert.InDelta(t, table[0].Amplitude, warned[0]["amplitude"], 1e-9)
}

func TestResult_MarshalJSONFailedRow(t *testing.T) {
	row := Result{Period: 5, Amplitude: math.NaN(), FAP: math.NaN(), State: StateFailed, Error: "bad"}
	data, err := row.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":5,"amplitude":null,"fap":null,"state":"failed","iterations":0,"error":"bad"}`, string(data))
}
