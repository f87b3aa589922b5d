package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/benchgate/internal/config"
	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/history"
	"github.com/Aman-CERP/benchgate/internal/output"
	"github.com/Aman-CERP/benchgate/internal/regression"
	"github.com/Aman-CERP/benchgate/internal/report"
)

type calculateOptions struct {
	resultsDir      string
	outDir          string
	textfile        string
	history         bool
	medianThreshold float64
	stddevThreshold float64
}

func newCalculateCmd() *cobra.Command {
	var opts calculateOptions

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Compare baseline and dev results and report regressions",
		Long: `Read every <branch>_<run>.json hyperfine export in the results directory,
pair baseline and dev files by run, and compare their median and stddev.

All calculations are printed and written to <out-dir>/final_calculations_<ts>.json.
The command exits 1 when any metric regressed.`,
		Example: `  # Compare results from two measure runs
  benchgate calculate -r results -o out

  # Also export Prometheus gauges and record the run
  benchgate calculate -r results -o out --metrics-textfile /var/lib/node_exporter/benchgate.prom --history`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCalculate(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.resultsDir, "results-dir", "r", "", "Directory containing hyperfine JSON results (required)")
	cmd.Flags().StringVarP(&opts.outDir, "out-dir", "o", "", "Existing directory to write the calculation report to (required)")
	cmd.Flags().StringVar(&opts.textfile, "metrics-textfile", "", "Also write Prometheus textfile gauges to this path")
	cmd.Flags().BoolVar(&opts.history, "history", false, "Record the calculations in the history database")
	cmd.Flags().Float64Var(&opts.medianThreshold, "median-threshold", 0, "Override the median regression threshold")
	cmd.Flags().Float64Var(&opts.stddevThreshold, "stddev-threshold", 0, "Override the stddev regression threshold")
	_ = cmd.MarkFlagRequired("results-dir")
	_ = cmd.MarkFlagRequired("out-dir")

	return cmd
}

func runCalculate(ctx context.Context, cmd *cobra.Command, opts calculateOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyCalculateFlags(cmd, cfg, opts); err != nil {
		return err
	}

	// Fail before reading any results if the report cannot be written.
	if err := report.CheckOutputDir(opts.outDir); err != nil {
		return err
	}

	detector := regression.New(
		regression.WithThresholds(cfg.RegressionThresholds()),
		regression.WithReaderWorkers(cfg.Reader.Workers),
		regression.WithLogger(slog.Default()),
	)
	calcs, err := detector.Regressions(ctx, opts.resultsDir)
	if err != nil {
		return err
	}

	out := output.NewAuto(cmd.OutOrStdout())
	out.RenderCalculations(calcs)

	path, err := report.WriteJSON(opts.outDir, calcs)
	if err != nil {
		return err
	}
	slog.Info("report_written",
		slog.String("path", path),
		slog.Int("calculations", len(calcs)))

	if opts.textfile != "" {
		if err := report.WriteTextfile(opts.textfile, calcs); err != nil {
			return bgerrors.InternalError("failed to write metrics textfile", err).
				WithDetail("path", opts.textfile)
		}
	}

	if cfg.History.Enabled {
		if err := recordHistory(ctx, cfg.History.Path, opts.resultsDir, calcs); err != nil {
			return err
		}
	}

	if n := out.RenderSummary(calcs); n > 0 {
		slog.Warn("regressions_found", slog.Int("count", n))
		return &ExitError{Code: 1}
	}
	return nil
}

// applyCalculateFlags layers command-line overrides over cfg.
func applyCalculateFlags(cmd *cobra.Command, cfg *config.Config, opts calculateOptions) error {
	flags := cmd.Flags()
	if flags.Changed("history") {
		cfg.History.Enabled = opts.history
	}
	if flags.Changed("median-threshold") {
		cfg.Thresholds.Median = opts.medianThreshold
	}
	if flags.Changed("stddev-threshold") {
		cfg.Thresholds.Stddev = opts.stddevThreshold
	}
	if err := cfg.Validate(); err != nil {
		return bgerrors.ConfigError("invalid flags: "+err.Error(), err)
	}
	return nil
}

func recordHistory(ctx context.Context, dbPath, resultsDir string, calcs []regression.Calculation) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return bgerrors.InternalError("failed to open history database", err).
			WithDetail("path", dbPath)
	}
	defer func() { _ = store.Close() }()

	abs, err := filepath.Abs(resultsDir)
	if err != nil {
		abs = resultsDir
	}
	run := history.NewRun(abs, calcs)
	if err := store.Save(ctx, run); err != nil {
		return bgerrors.InternalError(fmt.Sprintf("failed to record run %s", run.ID), err).
			WithDetail("path", dbPath)
	}
	slog.Info("history_recorded",
		slog.String("run_id", run.ID),
		slog.String("path", dbPath))
	return nil
}
