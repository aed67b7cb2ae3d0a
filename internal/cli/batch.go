package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soltixdb/udlc/internal/ingest"
)

type batchOptions struct {
	inputDir  string
	outputDir string
	suffix    string
	detail    bool
	grid      gridFlags
	search    searchFlags
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch [--input-dir <dir>] [--output-dir <dir>]",
		Short: "Sweep every observation file in a directory",
		Long: `Run the configured sweep over every *.csv file of the input directory and
write one <name>UpperDetectionLimits.csv table per file into the output
directory. A file that cannot be read is reported and skipped. The exit code
is 1 when any file was skipped or any period failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.inputDir, "input-dir", "", "directory of observation files (config: ingest.input_dir)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "directory for result tables (config: ingest.output_dir)")
	cmd.Flags().StringVar(&opts.suffix, "suffix", "", "result file suffix (config: ingest.output_suffix)")
	cmd.Flags().BoolVar(&opts.detail, "detail", false, "add state, iteration and error columns")
	addGridFlags(cmd, &opts.grid)
	addSearchFlags(cmd, &opts.search)

	return cmd
}

func runBatch(cmd *cobra.Command, rootOpts *RootOptions, opts *batchOptions) error {
	cfg, logger, err := rootOpts.setup()
	if err != nil {
		return err
	}
	opts.grid.apply(cfg)
	opts.search.apply(cfg)
	if opts.inputDir != "" {
		cfg.Ingest.InputDir = opts.inputDir
	}
	if opts.outputDir != "" {
		cfg.Ingest.OutputDir = opts.outputDir
	}
	if opts.suffix != "" {
		cfg.Ingest.OutputSuffix = opts.suffix
	}

	inputs, err := ingest.ListInputs(cfg.Ingest.InputDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list inputs", err)
	}
	if len(inputs) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no CSV files in %s", cfg.Ingest.InputDir))
	}
	if err := os.MkdirAll(cfg.Ingest.OutputDir, 0o755); err != nil {
		return WrapExitError(ExitCommandError, "failed to create output directory", err)
	}

	var (
		reports []summary
		failed  int
		partial int
	)
	for _, input := range inputs {
		if err := cmd.Context().Err(); err != nil {
			return WrapExitError(ExitFailure, "batch interrupted", err)
		}

		log := logger.With("input", filepath.Base(input))
		series, err := readInput(cfg, input)
		if err != nil {
			log.Error("Skipping input", "error", err)
			failed++
			continue
		}

		table, err := sweepSeries(cmd.Context(), cfg, log, series)
		if err != nil && table == nil {
			return err
		}
		output := filepath.Join(cfg.Ingest.OutputDir, ingest.OutputName(input, cfg.Ingest.OutputSuffix))
		if werr := writeTableTo(nil, output, table, opts.detail); werr != nil {
			log.Error("Failed to write results", "output", output, "error", werr)
			failed++
			continue
		}
		if err != nil {
			return WrapExitError(ExitFailure, "batch interrupted", err)
		}

		s := summarize(input, output, series, table)
		reports = append(reports, s)
		if s.Failed > 0 {
			partial++
			log.Warn("Input finished with failed periods", "output", output, "periods", s.Periods, "failed_periods", s.Failed)
		} else {
			log.Info("Input finished", "output", output, "periods", s.Periods)
		}
		if rootOpts.Format == "text" {
			s.writeText(cmd.OutOrStdout())
		}
	}

	if rootOpts.Format == "json" {
		if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
			return err
		}
	}
	switch {
	case failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d inputs failed, %d with failed periods", failed, len(inputs), partial))
	case partial > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d inputs have failed periods", partial, len(inputs)))
	}
	return nil
}
