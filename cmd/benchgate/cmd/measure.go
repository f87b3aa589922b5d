package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/benchgate/internal/output"
	"github.com/Aman-CERP/benchgate/internal/runner"
)

func newMeasureCmd() *cobra.Command {
	var (
		projectsDir string
		branch      string
		resultsDir  string
	)

	cmd := &cobra.Command{
		Use:   "measure",
		Short: "Benchmark every project with hyperfine",
		Long: `Run hyperfine once per project directory and configured metric, exporting
results to <results>/<branch>_<metric>_<project>.json.

Branch must be "baseline" or "dev". A failing benchmark does not stop the
others; the command exits with the first failing exit code.`,
		Example: `  # Measure the baseline checkout
  benchgate measure -p projects -b baseline

  # Measure the dev checkout into a custom directory
  benchgate measure -p projects -b dev -r /tmp/results`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMeasure(cmd.Context(), cmd, projectsDir, branch, resultsDir)
		},
	}

	cmd.Flags().StringVarP(&projectsDir, "projects-dir", "p", "", "Directory whose subdirectories are benchmarked (required)")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", `Branch label: "baseline" or "dev" (required)`)
	cmd.Flags().StringVarP(&resultsDir, "results-dir", "r", "", "Where to write results (default: results/ next to the projects directory)")
	_ = cmd.MarkFlagRequired("projects-dir")
	_ = cmd.MarkFlagRequired("branch")

	return cmd
}

func runMeasure(ctx context.Context, cmd *cobra.Command, projectsDir, branch, resultsDir string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if resultsDir == "" {
		resultsDir = cfg.Runner.ResultsDir
	}

	r := runner.New(
		runner.WithExecutor(runner.HyperfineExecutor{
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}),
		runner.WithTool(cfg.Runner.Tool),
		runner.WithWarmup(cfg.Runner.Warmup),
		runner.WithMetrics(cfg.RunnerMetrics()),
		runner.WithResultsDir(resultsDir),
		runner.WithShowOutput(!cfg.Runner.Quiet),
		runner.WithLogger(slog.Default()),
	)

	results, err := r.Measure(ctx, projectsDir, branch)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	failed := 0
	for _, res := range results {
		if res.ExitCode != 0 {
			failed++
			out.Warningf("%s/%s exited with code %d", res.Project, res.Metric, res.ExitCode)
		}
	}

	if code := runner.FirstFailure(results); code != 0 {
		out.Errorf("%d of %d benchmarks failed", failed, len(results))
		return &ExitError{Code: code}
	}

	dir, _ := r.ResultsDir(projectsDir)
	out.Successf("Measured %d benchmarks for %s", len(results), branch)
	out.Statusf("📁", "Results: %s", dir)
	return nil
}
