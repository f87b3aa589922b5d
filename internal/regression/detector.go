package regression

import (
	"context"
	"log/slog"
	"time"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/measurement"
)

// Detector turns a results directory into calculations.
type Detector struct {
	thresholds    Thresholds
	now           func() time.Time
	logger        *slog.Logger
	readerWorkers int
}

// Option configures a Detector.
type Option func(*Detector)

// WithThresholds overrides the default thresholds.
func WithThresholds(t Thresholds) Option {
	return func(d *Detector) {
		d.thresholds = t
	}
}

// WithClock sets the time source used to stamp calculations.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithReaderWorkers bounds concurrent file parsing. Zero means one per CPU.
func WithReaderWorkers(n int) Option {
	return func(d *Detector) {
		d.readerWorkers = n
	}
}

// New creates a Detector with default thresholds.
func New(opts ...Option) *Detector {
	d := &Detector{
		thresholds: DefaultThresholds(),
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Thresholds returns the thresholds in use.
func (d *Detector) Thresholds() Thresholds {
	return d.thresholds
}

// Regressions reads every result file in dir and returns all calculations,
// regressions or not, ordered by run with median before stddev.
func (d *Detector) Regressions(ctx context.Context, dir string) ([]Calculation, error) {
	files, err := measurement.ReadDir(ctx, dir,
		measurement.WithWorkers(d.readerWorkers),
		measurement.WithLogger(d.logger))
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, bgerrors.NoResultsError(dir)
	}
	// one file per branch for every project-metric pairing
	if len(files)%2 == 1 {
		return nil, bgerrors.OddResultsCountError(len(files), dir)
	}

	inputs := make([]Input, 0, len(files))
	for _, f := range files {
		m, err := firstMeasurement(f)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, Input{Path: f.Path, Measurement: m})
	}

	pairs, err := GroupMeasurements(inputs)
	if err != nil {
		return nil, err
	}

	// one timestamp for the whole run keeps reports consistent
	ts := d.now().UTC()
	calcs := make([]Calculation, 0, 2*len(pairs))
	for _, p := range pairs {
		calcs = append(calcs, Calculate(p.Run, p.Dev, p.Baseline, d.thresholds, ts)...)
	}

	d.logger.Debug("regressions_calculated",
		slog.String("dir", dir),
		slog.Int("files", len(files)),
		slog.Int("pairs", len(pairs)),
		slog.Int("regressions", len(Flagged(calcs))))

	return calcs, nil
}

// firstMeasurement returns results[0]. Each runner invocation measures a
// single command, so later entries are ignored.
func firstMeasurement(f measurement.File) (measurement.Measurement, error) {
	if len(f.Set.Results) == 0 {
		return measurement.Measurement{}, bgerrors.EmptyResultsError(f.Path)
	}
	return f.Set.Results[0], nil
}

// Regressions runs a Detector with default settings over dir.
func Regressions(ctx context.Context, dir string) ([]Calculation, error) {
	return New().Regressions(ctx, dir)
}
