// Package cmd provides the CLI commands for benchgate.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/benchgate/internal/config"
	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/logging"
	"github.com/Aman-CERP/benchgate/internal/profiling"
	"github.com/Aman-CERP/benchgate/pkg/version"
)

// Global flags
var (
	debugMode      bool
	configFile     string
	jsonErrors     bool
	loggingCleanup func()
	profileOpts    profiling.Options
	profiler       *profiling.Profiler
)

// ExitError ends the process with Code without printing an error. Commands
// return it for expected non-zero outcomes such as found regressions.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewRootCmd creates the root command for the benchgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchgate",
		Short: "Catch performance regressions in hyperfine benchmarks",
		Long: `benchgate compares hyperfine results for a baseline branch against a
dev branch and fails the build when the dev branch is measurably slower.

Typical CI flow:
  benchgate measure -p projects -b baseline
  benchgate measure -p projects -b dev
  benchgate calculate -r results -o out`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("benchgate version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.benchgate/logs/")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Project config file (default: .benchgate.yaml in the project root)")
	cmd.PersistentFlags().BoolVar(&jsonErrors, "json-errors", false, "Print errors as JSON on stderr")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newMeasureCmd())
	cmd.AddCommand(newCalculateCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging installs the default logger (a rotating debug
// log file with --debug, JSON records on stderr otherwise) and starts any
// requested profiles.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if err := startLogging(cmd); err != nil {
		return err
	}
	if profileOpts.Enabled() {
		profiler = profiling.NewProfiler(profileOpts)
		if err := profiler.Start(); err != nil {
			profiler = nil
			return err
		}
	}
	return nil
}

func startLogging(cmd *cobra.Command) error {
	// Logging must work even when the config is broken; the command
	// itself reports the config error.
	cfg, err := loadConfig()
	if err != nil {
		cfg = config.NewConfig()
	}

	if !debugMode {
		slog.SetDefault(logging.NewQuiet(cmd.ErrOrStderr(), cfg.Logging.Level))
		return nil
	}

	logCfg := logging.DebugConfig()
	logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
	logCfg.MaxFiles = cfg.Logging.MaxFiles

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug_logging_enabled",
		slog.String("log_file", logCfg.FilePath),
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version))
	return nil
}

// stopProfilingAndLogging flushes profiles, then closes the debug log.
// Safe to call more than once.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}
	if loggingCleanup != nil {
		slog.Info("debug_logging_stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// loadConfig loads the effective configuration: --config when given,
// otherwise the project config found from the working directory.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, bgerrors.InternalError("failed to get current directory", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		root = cwd
	}
	return config.Load(root)
}

// Execute runs the root command against the process arguments and returns
// the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()

	var exitErr *ExitError
	isExit := errors.As(err, &exitErr)
	if err != nil && !isExit {
		slog.Debug("command_failed", bgerrors.FormatForLog(err)...)
	}

	// PersistentPostRunE is skipped when RunE fails.
	if stopErr := stopProfilingAndLogging(root, nil); stopErr != nil && err == nil {
		err = stopErr
	}

	switch {
	case err == nil:
		return 0
	case isExit:
		return exitErr.Code
	default:
		_, _ = fmt.Fprint(stderr, formatError(err))
		return 1
	}
}

func formatError(err error) string {
	if jsonErrors {
		if data, ferr := bgerrors.FormatJSON(err); ferr == nil {
			return string(data) + "\n"
		}
	}
	return bgerrors.FormatForCLI(err)
}
