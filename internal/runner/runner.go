// Package runner drives hyperfine to produce the result files that
// regression detection consumes.
//
// For every project directory and configured metric, Measure runs one
// hyperfine process inside the project and exports its JSON to
// <results>/<branch>_<metric>_<project>.json. Runs are sequential so
// benchmarks never compete for the machine.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/measurement"
	"github.com/Aman-CERP/benchgate/internal/regression"
)

// Metric is one benchmarked command.
type Metric struct {
	Name string
	// Prepare runs before every timing run. Empty means none.
	Prepare string
	Command string
	// Args are appended to Command.
	Args []string
}

// CommandLine returns the full command hyperfine should time.
func (m Metric) CommandLine() string {
	if len(m.Args) == 0 {
		return m.Command
	}
	return m.Command + " " + strings.Join(m.Args, " ")
}

// DefaultMetrics returns a clean `dbt parse` of each project.
func DefaultMetrics() []Metric {
	return []Metric{{
		Name:    "parse",
		Prepare: "rm -rf target/",
		Command: "dbt parse --no-version-check",
		Args:    []string{"--profiles-dir", "../../project_config/"},
	}}
}

// Result records one hyperfine invocation.
type Result struct {
	Project  string
	Metric   string
	OutFile  string
	ExitCode int
}

// Runner runs benchmarks for every project in a directory.
type Runner struct {
	executor   Executor
	tool       string
	warmup     int
	metrics    []Metric
	resultsDir string
	showOutput bool
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the subprocess executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) {
		r.executor = e
	}
}

// WithTool sets the hyperfine executable.
func WithTool(tool string) Option {
	return func(r *Runner) {
		r.tool = tool
	}
}

// WithWarmup sets the number of warmup runs.
func WithWarmup(n int) Option {
	return func(r *Runner) {
		r.warmup = n
	}
}

// WithMetrics sets the commands to benchmark.
func WithMetrics(metrics []Metric) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithResultsDir sets where exports are written. By default a "results"
// directory beside the projects directory is used.
func WithResultsDir(dir string) Option {
	return func(r *Runner) {
		r.resultsDir = dir
	}
}

// WithShowOutput controls hyperfine's --show-output.
func WithShowOutput(show bool) Option {
	return func(r *Runner) {
		r.showOutput = show
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// New creates a Runner with the default metric and a subprocess executor.
func New(opts ...Option) *Runner {
	r := &Runner{
		executor:   HyperfineExecutor{Stdout: os.Stdout, Stderr: os.Stderr},
		tool:       "hyperfine",
		warmup:     1,
		metrics:    DefaultMetrics(),
		showOutput: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResultsDir returns the directory exports for projectsDir are written to.
func (r *Runner) ResultsDir(projectsDir string) (string, error) {
	if r.resultsDir != "" {
		return filepath.Abs(r.resultsDir)
	}
	abs, err := filepath.Abs(projectsDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(abs), "results"), nil
}

// Measure benchmarks every project directory in projectsDir for branch,
// which must be "baseline" or "dev".
//
// A hyperfine run that exits non-zero does not stop the remaining runs;
// use FirstFailure on the results. A run that cannot start, or a
// successful run whose export is unreadable, aborts with the results
// gathered so far.
func (r *Runner) Measure(ctx context.Context, projectsDir, branch string) ([]Result, error) {
	if _, ok := regression.ParseVersion(branch); !ok {
		return nil, bgerrors.UnknownBranchError(branch)
	}

	projects, err := listProjects(projectsDir)
	if err != nil {
		return nil, err
	}

	resultsDir, err := r.ResultsDir(projectsDir)
	if err != nil {
		return nil, bgerrors.ReadError(projectsDir, err)
	}
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, bgerrors.InvalidOutputDirError(resultsDir, err)
	}

	lock := newResultsLock(resultsDir)
	if err := lock.Lock(ctx); err != nil {
		return nil, bgerrors.InternalError(err.Error(), err)
	}
	defer func() { _ = lock.Unlock() }()

	r.logger.Info("measure_started",
		slog.String("branch", branch),
		slog.String("projects_dir", projectsDir),
		slog.String("results_dir", resultsDir),
		slog.Int("projects", len(projects)),
		slog.Int("metrics", len(r.metrics)))

	results := make([]Result, 0, len(projects)*len(r.metrics))
	for _, project := range projects {
		for _, metric := range r.metrics {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			res, err := r.run(ctx, projectsDir, resultsDir, branch, project, metric)
			if err != nil {
				return results, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}

func (r *Runner) run(ctx context.Context, projectsDir, resultsDir, branch, project string, metric Metric) (Result, error) {
	outFile := filepath.Join(resultsDir, fmt.Sprintf("%s_%s_%s.json", branch, metric.Name, project))
	inv := Invocation{
		Tool: r.tool,
		Args: r.args(metric, outFile),
		Dir:  filepath.Join(projectsDir, project),
	}

	code, err := r.executor.Run(ctx, inv)
	if err != nil {
		return Result{}, bgerrors.CommandError(err).
			WithDetail("project", project).
			WithDetail("metric", metric.Name)
	}

	res := Result{Project: project, Metric: metric.Name, OutFile: outFile, ExitCode: code}
	if code != 0 {
		r.logger.Warn("benchmark_failed",
			slog.String("project", project),
			slog.String("metric", metric.Name),
			slog.Int("exit_code", code))
		return res, nil
	}

	if _, err := measurement.ReadFile(outFile); err != nil {
		return res, err
	}
	r.logger.Debug("benchmark_done",
		slog.String("project", project),
		slog.String("metric", metric.Name),
		slog.String("out_file", outFile))
	return res, nil
}

// args builds the hyperfine argument list for one metric.
func (r *Runner) args(metric Metric, outFile string) []string {
	args := []string{"--warmup", strconv.Itoa(r.warmup)}
	if metric.Prepare != "" {
		args = append(args, "--prepare", metric.Prepare)
	}
	args = append(args, metric.CommandLine(), "--export-json", outFile)
	if r.showOutput {
		args = append(args, "--show-output")
	}
	return args
}

// listProjects returns the subdirectory names of projectsDir in name order.
func listProjects(projectsDir string) ([]string, error) {
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, bgerrors.ReadError(projectsDir, err)
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(projectsDir, name)
		if name == "" || name == "." || name == ".." {
			return nil, bgerrors.MissingFilenameError(path)
		}
		if !utf8.ValidString(name) {
			return nil, bgerrors.FilenameNotUnicodeError(path)
		}
		projects = append(projects, name)
	}
	return projects, nil
}

// FirstFailure returns the exit code of the first failed run, or 0.
func FirstFailure(results []Result) int {
	for _, r := range results {
		if r.ExitCode != 0 {
			return r.ExitCode
		}
	}
	return 0
}
