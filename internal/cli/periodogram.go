package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/soltixdb/udlc/internal/analytics/periodogram"
)

type periodogramOptions struct {
	input  string
	top    int
	method string
}

// peakReport is one periodogram peak with its significance
type peakReport struct {
	periodogram.Peak
	FAP float64 `json:"fap"`
}

// NewPeriodogramCommand creates the periodogram command.
func NewPeriodogramCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &periodogramOptions{}

	cmd := &cobra.Command{
		Use:   "periodogram --input <file.csv>",
		Short: "List the strongest periodogram peaks of a series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriodogram(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "observation CSV file")
	cmd.Flags().IntVarP(&opts.top, "top", "k", 5, "number of peaks to list")
	cmd.Flags().StringVar(&opts.method, "method", "", "FAP method: baluev, davies, naive, single, bootstrap")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runPeriodogram(cmd *cobra.Command, rootOpts *RootOptions, opts *periodogramOptions) error {
	cfg, _, err := rootOpts.setup()
	if err != nil {
		return err
	}
	if opts.method != "" {
		cfg.Periodogram.FAPMethod = opts.method
	}

	series, err := readInput(cfg, opts.input)
	if err != nil {
		return err
	}
	oracle, err := newOracle(cfg)
	if err != nil {
		return err
	}

	freqs, power, err := oracle.Periodogram(series.Times, series.Values, series.Errors)
	if err != nil {
		return WrapExitError(ExitCommandError, "periodogram failed", err)
	}

	peaks := periodogram.TopPeaks(freqs, power, opts.top)
	reports := make([]peakReport, 0, len(peaks))
	for _, p := range peaks {
		fap, err := oracle.FAP(series.Times, series.Values, series.Errors, p.Frequency)
		if err != nil {
			return WrapExitError(ExitCommandError, "significance failed", err)
		}
		reports = append(reports, peakReport{Peak: p, FAP: fap})
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		return writeJSON(out, reports)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "PERIOD\tFREQUENCY\tPOWER\tFAP (%s)\n", oracle.Method())
	for _, r := range reports {
		fmt.Fprintf(tw, "%.6g\t%.6g\t%.4f\t%.3g\n", r.Period, r.Frequency, r.Power, r.FAP)
	}
	return tw.Flush()
}
