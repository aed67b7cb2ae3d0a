package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/ingest"
)

type sweepOptions struct {
	input  string
	output string
	detail bool
	grid   gridFlags
	search searchFlags
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep --input <file.csv> [--output <limits.csv>]",
		Short: "Compute detection limits over an evenly spaced period grid",
		Long: `Compute the detection limit at every period of an evenly spaced grid and write
the Period,Amplitude,FAP table. Periods that cannot be searched are written
with NaN values; they never stop the sweep, but the exit code is 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "observation CSV file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "-", "result CSV file (- for stdout)")
	cmd.Flags().BoolVar(&opts.detail, "detail", false, "add state, iteration and error columns")
	addGridFlags(cmd, &opts.grid)
	addSearchFlags(cmd, &opts.search)
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runSweep(cmd *cobra.Command, rootOpts *RootOptions, opts *sweepOptions) error {
	cfg, logger, err := rootOpts.setup()
	if err != nil {
		return err
	}
	opts.grid.apply(cfg)
	opts.search.apply(cfg)

	series, err := readInput(cfg, opts.input)
	if err != nil {
		return err
	}

	logger.Info("Sweep started", "input", opts.input, "periods", cfg.Sweep.NumPeriods)
	table, err := sweepSeries(cmd.Context(), cfg, logger, series)
	if err != nil {
		if table == nil {
			return err
		}
		// cancelled: the table still carries every finished row
		logger.Warn("Sweep interrupted", "error", err)
	}

	toStdout := opts.output == "" || opts.output == "-"
	if err := writeTableTo(cmd.OutOrStdout(), opts.output, table, opts.detail); err != nil {
		return WrapExitError(ExitCommandError, "failed to write results", err)
	}

	s := summarize(opts.input, opts.output, series, table)
	if toStdout {
		s.Output = ""
	}
	if rootOpts.Format == "json" && !toStdout {
		if err := writeJSON(cmd.OutOrStdout(), s); err != nil {
			return err
		}
	} else {
		s.writeText(cmd.ErrOrStderr())
	}

	if err != nil {
		return WrapExitError(ExitFailure, "sweep interrupted", err)
	}
	if s.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d periods failed", s.Failed, s.Periods))
	}
	return nil
}

// writeTableTo writes to path, or to stdout for "-"
func writeTableTo(stdout io.Writer, path string, table detection.Table, detail bool) (err error) {
	opts := ingest.WriteOptions{Detail: detail}
	if path == "" || path == "-" {
		return ingest.WriteTable(stdout, table, opts)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return ingest.WriteTable(f, table, opts)
}
