package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/quant-edge/internal/models"
	"github.com/yourusername/quant-edge/internal/pipeline"
	"github.com/yourusername/quant-edge/internal/report"
	"github.com/yourusername/quant-edge/internal/service"
)

type runOptions struct {
	date          string
	allowOverride bool
	output        string
	snapshot      string
	iterations    int
	seed          int64
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run today's analysis once and write the report",
		Long: `Runs the full pipeline once. The report is written to the configured output
path, replacing any previous report, and printed to stdout. Missing or stale
live data produces an aborted report rather than a failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "Run date (YYYY-MM-DD); requires --allow-manual-override unless it is today")
	cmd.Flags().BoolVar(&opts.allowOverride, "allow-manual-override", false, "Allow a run date other than today")
	cmd.Flags().StringVar(&opts.output, "output", "", "Report output path (default from config)")
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Read the snapshot from this file instead of the configured source")
	cmd.Flags().IntVar(&opts.iterations, "iterations", 0, "Simulation iterations per market (minimum 10000)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed; 0 seeds from the clock")
	return cmd
}

func runOnce(cmd *cobra.Command, opts runOptions) error {
	ctx := cmd.Context()

	req := pipeline.Request{
		AllowOverride: opts.allowOverride,
		Iterations:    opts.iterations,
		Origin:        "cli",
	}
	if opts.date != "" {
		d, err := models.ParseDate(opts.date)
		if err != nil {
			return errors.New(models.MsgInvalidDate)
		}
		req.Date = &d
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.snapshot != "" {
		cfg.Source.Kind = "file"
		cfg.Source.Path = opts.snapshot
	}
	if opts.output != "" {
		cfg.Report.OutputPath = opts.output
	}
	if cmd.Flags().Changed("seed") {
		cfg.Simulation.Seed = opts.seed
	}
	if err := validate(cfg); err != nil {
		return err
	}

	// stdout carries the report
	log := newLogger(cfg, cmd.ErrOrStderr())
	comps, err := service.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer comps.Close()

	rep, err := comps.Service.Run(ctx, req)
	if rep != nil {
		if encErr := report.Encode(cmd.OutOrStdout(), rep); encErr != nil {
			return encErr
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrDataUnavailable):
		// The aborted report has already been written and printed.
		log.WithError(err).Warn("Analysis aborted")
		return nil
	case errors.Is(err, models.ErrOverrideRejected):
		fmt.Fprintln(cmd.ErrOrStderr(), "Refusing to run for a date other than today without --allow-manual-override.")
		return err
	default:
		return err
	}
}
