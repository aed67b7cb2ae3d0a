package cli

import (
	"github.com/spf13/cobra"

	"github.com/soltixdb/udlc/internal/analytics/detection"
	"github.com/soltixdb/udlc/internal/services"
)

type searchOptions struct {
	input  string
	period float64
	search searchFlags
	trace  bool
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search --input <file.csv> --period <days>",
		Short: "Find the detection limit at a single period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "observation CSV file")
	cmd.Flags().Float64VarP(&opts.period, "period", "p", 0, "trial period in days")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "log every bisection step")
	addSearchFlags(cmd, &opts.search)
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runSearch(cmd *cobra.Command, rootOpts *RootOptions, opts *searchOptions) error {
	cfg, logger, err := rootOpts.setup()
	if err != nil {
		return err
	}
	opts.search.apply(cfg)

	series, err := readInput(cfg, opts.input)
	if err != nil {
		return err
	}
	oracle, err := newOracle(cfg)
	if err != nil {
		return err
	}
	search := services.SearchConfigFromConfig(cfg.Sweep)
	if opts.trace {
		search.OnIteration = func(s detection.SearchState) {
			logger.Info("Bisection step",
				"iteration", s.Iteration,
				"lower", s.Lower,
				"upper", s.Upper,
				"amplitude", s.Amplitude,
				"fap", s.FAP,
				"state", s.State)
		}
	}

	res, err := detection.SearchAmplitude(cmd.Context(), series, opts.period, oracle, search)
	if err != nil && res.State != detection.StateFailed {
		return WrapExitError(ExitCommandError, "search failed", err)
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		writeRow(out, res)
	}
	if res.State == detection.StateFailed {
		return WrapExitError(ExitFailure, "search failed", err)
	}
	return nil
}
