package measurement

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
)

// readOptions configures ReadDir.
type readOptions struct {
	workers int
	logger  *slog.Logger
}

// ReadOption configures ReadDir.
type ReadOption func(*readOptions)

// WithWorkers bounds how many files are read and parsed concurrently.
// Values below 1 fall back to runtime.NumCPU().
func WithWorkers(n int) ReadOption {
	return func(o *readOptions) {
		o.workers = n
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) ReadOption {
	return func(o *readOptions) {
		o.logger = logger
	}
}

// IsResultFile reports whether path has an extension ending in "json".
// A leading dot marks a hidden file, not an extension.
func IsResultFile(path string) bool {
	base := filepath.Base(path)
	if strings.LastIndex(base, ".") <= 0 {
		return false
	}
	return strings.HasSuffix(filepath.Ext(base), "json")
}

// ReadFile reads and parses a single measurement file.
func ReadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, bgerrors.BadFileContentsError(path, err)
	}
	set, err := Parse(data)
	if err != nil {
		return Set{}, bgerrors.BadJSONError(path, err)
	}
	return set, nil
}

// ReadDir loads every measurement file in dir.
//
// Files are returned in directory enumeration order. Reading is all or
// nothing: if any file fails, the error for the earliest failing file is
// returned and no results are.
func ReadDir(ctx context.Context, dir string, opts ...ReadOption) ([]File, error) {
	o := readOptions{workers: runtime.NumCPU(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, bgerrors.ReadError(dir, err)
	}

	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if IsResultFile(path) {
			paths = append(paths, path)
		}
	}

	o.logger.Debug("measurement_files_found",
		slog.String("dir", dir),
		slog.Int("entries", len(entries)),
		slog.Int("files", len(paths)))

	sets := make([]Set, len(paths))
	errs := make([]error, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(o.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			sets[i], errs[i] = ReadFile(path)
			return nil
		})
	}
	_ = g.Wait()

	files := make([]File, 0, len(paths))
	for i, path := range paths {
		if errs[i] != nil {
			return nil, errs[i]
		}
		files = append(files, File{Path: path, Set: sets[i]})
	}
	return files, nil
}
