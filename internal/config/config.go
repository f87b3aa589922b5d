package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/regression"
	"github.com/Aman-CERP/benchgate/internal/runner"
)

// ProjectConfigName is the per-repository configuration file name.
const ProjectConfigName = ".benchgate.yaml"

// Config represents the complete benchgate configuration.
type Config struct {
	Version    int              `yaml:"version" json:"version"`
	Thresholds ThresholdsConfig `yaml:"thresholds" json:"thresholds"`
	Reader     ReaderConfig     `yaml:"reader" json:"reader"`
	Runner     RunnerConfig     `yaml:"runner" json:"runner"`
	Metrics    []MetricConfig   `yaml:"metrics" json:"metrics" validate:"required,min=1,dive"`
	History    HistoryConfig    `yaml:"history" json:"history"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// ThresholdsConfig holds the dev/baseline ratios above which a metric is a
// regression. Configurable via:
//  1. User config (~/.config/benchgate/config.yaml)
//  2. Project config (.benchgate.yaml)
//  3. Env vars (BENCHGATE_MEDIAN_THRESHOLD, BENCHGATE_STDDEV_THRESHOLD)
type ThresholdsConfig struct {
	Median float64 `yaml:"median" json:"median" validate:"gt=0"`
	Stddev float64 `yaml:"stddev" json:"stddev" validate:"gt=0"`
}

// ReaderConfig tunes how result files are loaded.
type ReaderConfig struct {
	// Workers bounds concurrent file parsing. 0 means one per CPU.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0"`
}

// RunnerConfig configures the hyperfine driver used by `measure`.
type RunnerConfig struct {
	// Tool is the hyperfine executable name or path.
	Tool   string `yaml:"tool" json:"tool" validate:"required"`
	Warmup int    `yaml:"warmup" json:"warmup" validate:"gte=0"`
	// ResultsDir is where exports are written. Empty means a "results"
	// directory next to the projects directory.
	ResultsDir string `yaml:"results_dir" json:"results_dir"`
	// Quiet suppresses hyperfine's --show-output.
	Quiet bool `yaml:"quiet" json:"quiet"`
}

// MetricConfig is one benchmarked command.
type MetricConfig struct {
	Name    string   `yaml:"name" json:"name" validate:"required,excludesall=/\\"`
	Prepare string   `yaml:"prepare" json:"prepare"`
	Command string   `yaml:"command" json:"command" validate:"required"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// HistoryConfig configures the SQLite calculation history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig configures logging. Level is the stderr threshold used
// without --debug; the size limits apply to the --debug log file.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb" validate:"gt=0"`
	MaxFiles  int    `yaml:"max_files" json:"max_files" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Thresholds: ThresholdsConfig{
			Median: regression.DefaultMedianThreshold,
			Stddev: regression.DefaultStddevThreshold,
		},
		Reader: ReaderConfig{
			Workers: 0,
		},
		Runner: RunnerConfig{
			Tool:   "hyperfine",
			Warmup: 1,
		},
		Metrics: DefaultMetrics(),
		History: HistoryConfig{
			Enabled: false,
			Path:    defaultHistoryPath(),
		},
		Logging: LoggingConfig{
			Level:     "warn",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
	}
}

// DefaultMetrics returns the built-in metric set: a clean `dbt parse`.
func DefaultMetrics() []MetricConfig {
	defaults := runner.DefaultMetrics()
	out := make([]MetricConfig, 0, len(defaults))
	for _, m := range defaults {
		out = append(out, MetricConfig{Name: m.Name, Prepare: m.Prepare, Command: m.Command, Args: m.Args})
	}
	return out
}

// RunnerMetrics converts the configured metrics for the runner.
func (c *Config) RunnerMetrics() []runner.Metric {
	out := make([]runner.Metric, 0, len(c.Metrics))
	for _, m := range c.Metrics {
		out = append(out, runner.Metric{Name: m.Name, Prepare: m.Prepare, Command: m.Command, Args: m.Args})
	}
	return out
}

// RegressionThresholds converts the configured thresholds for the detector.
func (c *Config) RegressionThresholds() regression.Thresholds {
	return regression.Thresholds{
		Median: c.Thresholds.Median,
		Stddev: c.Thresholds.Stddev,
	}
}

// DataDir returns ~/.benchgate, the home of history and logs.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".benchgate")
	}
	return filepath.Join(home, ".benchgate")
}

func defaultHistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/benchgate/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/benchgate/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "benchgate", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "benchgate", "config.yaml")
	}
	return filepath.Join(home, ".config", "benchgate", "config.yaml")
}

// loadUserConfig loads the user configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}

	var parsed Config
	if err := parseYAML(configPath, &parsed); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return &parsed, nil
}

// Load loads configuration for the project rooted at dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/benchgate/config.yaml)
//  3. Project config (.benchgate.yaml in dir)
//  4. Environment variables (BENCHGATE_*)
func Load(dir string) (*Config, error) {
	return load(filepath.Join(dir, ProjectConfigName), false)
}

// LoadFile is Load with an explicit project config path, which must exist.
func LoadFile(path string) (*Config, error) {
	return load(path, true)
}

func load(projectPath string, required bool) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, bgerrors.ConfigError(err.Error(), err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if required || fileExists(projectPath) {
		if err := cfg.loadYAML(projectPath); err != nil {
			return nil, bgerrors.ConfigError(err.Error(), err).
				WithDetail("path", projectPath)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, bgerrors.ConfigError("invalid configuration: "+err.Error(), err).
			WithSuggestion("Check .benchgate.yaml, the user config and BENCHGATE_* environment variables")
	}

	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	var parsed Config
	if err := parseYAML(path, &parsed); err != nil {
		return err
	}
	c.mergeWith(&parsed)
	return nil
}

func parseYAML(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Thresholds.Median != 0 {
		c.Thresholds.Median = other.Thresholds.Median
	}
	if other.Thresholds.Stddev != 0 {
		c.Thresholds.Stddev = other.Thresholds.Stddev
	}

	if other.Reader.Workers != 0 {
		c.Reader.Workers = other.Reader.Workers
	}

	if other.Runner.Tool != "" {
		c.Runner.Tool = other.Runner.Tool
	}
	if other.Runner.Warmup != 0 {
		c.Runner.Warmup = other.Runner.Warmup
	}
	if other.Runner.ResultsDir != "" {
		c.Runner.ResultsDir = other.Runner.ResultsDir
	}
	if other.Runner.Quiet {
		c.Runner.Quiet = true
	}

	// A metrics list replaces the defaults rather than extending them.
	if len(other.Metrics) > 0 {
		c.Metrics = other.Metrics
	}

	if other.History.Enabled {
		c.History.Enabled = true
	}
	if other.History.Path != "" {
		c.History.Path = other.History.Path
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies BENCHGATE_* environment variable overrides.
// Unparseable or out-of-range values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BENCHGATE_MEDIAN_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t > 0 {
			c.Thresholds.Median = t
		}
	}
	if v := os.Getenv("BENCHGATE_STDDEV_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t > 0 {
			c.Thresholds.Stddev = t
		}
	}
	if v := os.Getenv("BENCHGATE_READER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Reader.Workers = n
		}
	}
	if v := os.Getenv("BENCHGATE_HYPERFINE"); v != "" {
		c.Runner.Tool = v
	}
	if v := os.Getenv("BENCHGATE_RESULTS_DIR"); v != "" {
		c.Runner.ResultsDir = v
	}
	if v := os.Getenv("BENCHGATE_HISTORY_ENABLED"); v != "" {
		c.History.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("BENCHGATE_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("BENCHGATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// FindProjectRoot walks up from startDir looking for a .git directory or a
// .benchgate.yaml file. It returns startDir (absolute) if neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) ||
			fileExists(filepath.Join(currentDir, ProjectConfigName)) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("%s failed '%s' check (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	// Thresholds below 1 would flag every unchanged benchmark.
	if c.Thresholds.Median < 1 {
		return fmt.Errorf("thresholds.median must be at least 1.0, got %g", c.Thresholds.Median)
	}
	if c.Thresholds.Stddev < 1 {
		return fmt.Errorf("thresholds.stddev must be at least 1.0, got %g", c.Thresholds.Stddev)
	}

	seen := make(map[string]bool, len(c.Metrics))
	for _, m := range c.Metrics {
		if seen[m.Name] {
			return fmt.Errorf("metrics: duplicate name %q", m.Name)
		}
		seen[m.Name] = true
	}

	if c.History.Enabled && c.History.Path == "" {
		return fmt.Errorf("history.path is required when history is enabled")
	}

	return nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
