// Package history keeps a SQLite log of calculation runs so regressions can
// be tracked across CI builds.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/benchgate/internal/regression"
)

// DefaultLimit caps listings when no limit is given.
const DefaultLimit = 20

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("history: run not found")

// Run is one `calculate` invocation and everything it produced.
type Run struct {
	ID           string                   `json:"id"`
	ResultsDir   string                   `json:"results_dir"`
	CreatedAt    time.Time                `json:"created_at"`
	Calculations []regression.Calculation `json:"calculations"`
}

// RunSummary is a Run without its calculations.
type RunSummary struct {
	ID          string    `json:"id"`
	ResultsDir  string    `json:"results_dir"`
	CreatedAt   time.Time `json:"created_at"`
	Metrics     int       `json:"metrics"`
	Regressions int       `json:"regressions"`
}

// NewRun stamps calcs with a fresh ID. CreatedAt is the calculations'
// shared timestamp, or now when there are none.
func NewRun(resultsDir string, calcs []regression.Calculation) Run {
	created := time.Now().UTC()
	if len(calcs) > 0 {
		created = calcs[0].TS.UTC()
	}
	return Run{
		ID:           uuid.NewString(),
		ResultsDir:   resultsDir,
		CreatedAt:    created,
		Calculations: calcs,
	}
}

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		results_dir TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

	-- NULL difference/baseline/dev encode NaN, which SQLite cannot store
	CREATE TABLE IF NOT EXISTS calculations (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		metric TEXT NOT NULL,
		regression INTEGER NOT NULL,
		ts INTEGER NOT NULL,
		threshold REAL,
		difference REAL,
		baseline REAL,
		dev REAL,
		PRIMARY KEY (run_id, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_calculations_metric ON calculations(metric, ts DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records run and its calculations in one transaction.
func (s *Store) Save(ctx context.Context, run Run) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, results_dir, created_at) VALUES (?, ?, ?)`,
		run.ID, run.ResultsDir, run.CreatedAt.UnixNano()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calculations
			(run_id, seq, metric, regression, ts, threshold, difference, baseline, dev)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range run.Calculations {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, c.Metric, c.Regression, c.TS.UnixNano(),
			nullable(c.Data.Threshold), nullable(c.Data.Difference),
			nullable(c.Data.Baseline), nullable(c.Data.Dev)); err != nil {
			return fmt.Errorf("insert calculation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Recent returns the newest runs first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.results_dir, r.created_at,
			COUNT(c.seq), COALESCE(SUM(c.regression), 0)
		FROM runs r
		LEFT JOIN calculations c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var rs RunSummary
		var created int64
		if err := rows.Scan(&rs.ID, &rs.ResultsDir, &created, &rs.Metrics, &rs.Regressions); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rs.CreatedAt = time.Unix(0, created).UTC()
		runs = append(runs, rs)
	}
	return runs, rows.Err()
}

// Get loads a full run by ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id}
	var created int64
	err := s.db.QueryRowContext(ctx,
		`SELECT results_dir, created_at FROM runs WHERE id = ?`, id).
		Scan(&run.ResultsDir, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	run.CreatedAt = time.Unix(0, created).UTC()

	calcs, err := s.queryCalculations(ctx, `
		SELECT metric, regression, ts, threshold, difference, baseline, dev
		FROM calculations WHERE run_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return Run{}, err
	}
	run.Calculations = calcs
	return run, nil
}

// MetricHistory returns the most recent calculations for metric, newest
// first.
func (s *Store) MetricHistory(ctx context.Context, metric string, limit int) ([]regression.Calculation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.queryCalculations(ctx, `
		SELECT metric, regression, ts, threshold, difference, baseline, dev
		FROM calculations WHERE metric = ?
		ORDER BY ts DESC, rowid DESC
		LIMIT ?
	`, metric, limit)
}

func (s *Store) queryCalculations(ctx context.Context, query string, args ...any) ([]regression.Calculation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	var calcs []regression.Calculation
	for rows.Next() {
		var c regression.Calculation
		var ts int64
		var threshold, difference, baseline, dev sql.NullFloat64
		if err := rows.Scan(&c.Metric, &c.Regression, &ts,
			&threshold, &difference, &baseline, &dev); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		c.TS = time.Unix(0, ts).UTC()
		c.Data = regression.Data{
			Threshold:  orNaN(threshold),
			Difference: orNaN(difference),
			Baseline:   orNaN(baseline),
			Dev:        orNaN(dev),
		}
		calcs = append(calcs, c)
	}
	return calcs, rows.Err()
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
