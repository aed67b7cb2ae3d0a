package detection

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/soltixdb/udlc/internal/analytics"
	"github.com/soltixdb/udlc/internal/logging"
)

// SweepOptions contains configuration for a sweep's worker pool
type SweepOptions struct {
	// Workers is the number of concurrent period searches.
	// 0 uses GOMAXPROCS, 1 runs the grid sequentially.
	Workers int

	// Logger receives one line per finished period. Nil uses the global logger.
	Logger *logging.Logger

	// Progress, if set, is called after every finished period with the number
	// of completed rows. Calls are serialized.
	Progress func(done, total int, row Result)
}

// DefaultSweepOptions returns default sweep options
func DefaultSweepOptions() SweepOptions {
	return SweepOptions{
		Workers: runtime.GOMAXPROCS(0),
	}
}

// Sweep runs an independent amplitude search for every period and returns one
// row per period in grid order. A period that cannot be searched produces a
// StateFailed row; it never aborts the remaining periods. If ctx is cancelled,
// periods not yet started are reported as failed and ctx.Err() is returned
// alongside the full table.
func Sweep(ctx context.Context, series *analytics.ObservationSeries, periods []float64,
	oracle Oracle, cfg SearchConfig, opts SweepOptions,
) (Table, error) {
	if len(periods) == 0 {
		return Table{}, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultSweepOptions().Workers
	}
	if workers > len(periods) {
		workers = len(periods)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}

	// the iteration hook observes one search's private bracket; concurrent
	// searches would interleave, so it is only honoured for sequential sweeps
	if workers > 1 {
		cfg.OnIteration = nil
	}

	table := make(Table, len(periods))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		searched atomic.Int64
	)

	finish := func(i int, row Result, err error) {
		table[i] = row
		switch {
		case err != nil:
			log.Warn("Period search failed",
				"period", row.Period,
				"error", err)
		case row.State == StateExhausted:
			log.Warn("Period search exhausted its iterations without reaching the FAP band",
				"period", row.Period,
				"amplitude", row.Amplitude,
				"fap", row.FAP,
				"iterations", row.Iterations)
		default:
			log.Debug("Finished calculation for upper detection limit at period",
				"period", row.Period,
				"amplitude", row.Amplitude,
				"fap", row.FAP,
				"state", string(row.State),
				"iterations", row.Iterations)
		}
		if opts.Progress != nil {
			mu.Lock()
			done++
			opts.Progress(done, len(periods), row)
			mu.Unlock()
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				row, err := SearchAmplitude(ctx, series, periods[i], oracle, cfg)
				searched.Add(1)
				finish(i, row, err)
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(periods); next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := next; i < len(periods); i++ {
			table[i] = Result{
				Period:    periods[i],
				Amplitude: math.NaN(),
				FAP:       math.NaN(),
				State:     StateFailed,
				Error:     fmt.Sprintf("not started: %v", err),
			}
		}
		log.Warn("Sweep cancelled",
			"searched", searched.Load(),
			"total", len(periods),
			"error", err)
		return table, err
	}

	log.Info("Sweep finished",
		"periods", len(periods),
		"converged", table.Count(StateConvergedOnBand),
		"boundary", table.Count(StateConvergedAtBoundary),
		"exhausted", table.Count(StateExhausted),
		"failed", table.Count(StateFailed))
	return table, nil
}
