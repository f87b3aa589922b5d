package cmd

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/history"
	"github.com/Aman-CERP/benchgate/internal/output"
)

type historyOptions struct {
	metric     string
	runID      string
	limit      int
	jsonOutput bool
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded calculation runs",
		Long: `Show runs recorded by 'benchgate calculate --history' (or history.enabled
in the config), newest first.`,
		Example: `  # Recent runs
  benchgate history

  # How one metric moved over time
  benchgate history --metric median_parse_jaffle_shop --limit 50

  # Every calculation of one run, as JSON
  benchgate history --run 6f1c... --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.metric, "metric", "", "Show calculations for one metric")
	cmd.Flags().StringVar(&opts.runID, "run", "", "Show every calculation of one run")
	cmd.Flags().IntVar(&opts.limit, "limit", history.DefaultLimit, "Maximum number of entries")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagsMutuallyExclusive("metric", "run")

	return cmd
}

func runHistory(cmd *cobra.Command, opts historyOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := output.NewAuto(cmd.OutOrStdout())

	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		if opts.jsonOutput {
			return writeJSON(cmd, []any{})
		}
		out.Warning("No history database found")
		out.Statusf("📁", "Expected at: %s", cfg.History.Path)
		out.Status("💡", "Run 'benchgate calculate --history' to start recording")
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return bgerrors.InternalError("failed to open history database", err).
			WithDetail("path", cfg.History.Path)
	}
	defer func() { _ = store.Close() }()

	switch {
	case opts.runID != "":
		run, err := store.Get(ctx, opts.runID)
		if err != nil {
			return bgerrors.InternalError(err.Error(), err)
		}
		if opts.jsonOutput {
			return writeJSON(cmd, run)
		}
		out.Statusf("🕒", "Run %s at %s", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
		out.Statusf("📁", "Results: %s", run.ResultsDir)
		out.Newline()
		out.RenderCalculations(run.Calculations)
		out.RenderSummary(run.Calculations)
		return nil

	case opts.metric != "":
		calcs, err := store.MetricHistory(ctx, opts.metric, opts.limit)
		if err != nil {
			return bgerrors.InternalError("failed to query history", err)
		}
		if opts.jsonOutput {
			return writeJSON(cmd, nonNil(calcs))
		}
		out.RenderCalculations(calcs)
		return nil

	default:
		runs, err := store.Recent(ctx, opts.limit)
		if err != nil {
			return bgerrors.InternalError("failed to query history", err)
		}
		if opts.jsonOutput {
			return writeJSON(cmd, nonNil(runs))
		}
		out.RenderRuns(runs)
		return nil
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
