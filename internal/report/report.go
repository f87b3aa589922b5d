// Package report writes calculation results for people and machines: a
// JSON report per run and an optional Prometheus textfile for node
// exporter based dashboards.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bgerrors "github.com/Aman-CERP/benchgate/internal/errors"
	"github.com/Aman-CERP/benchgate/internal/regression"
)

// FilePrefix starts every report file name.
const FilePrefix = "final_calculations_"

// FileName returns the report file name for a run stamped ts.
func FileName(ts time.Time) string {
	return fmt.Sprintf("%s%d.json", FilePrefix, ts.Unix())
}

// WriteJSON writes calcs as an indented JSON array into outDir, which must
// already exist. The file is named after the first calculation's
// timestamp, or the current time when calcs is empty. Returns the path
// written.
func WriteJSON(outDir string, calcs []regression.Calculation) (string, error) {
	if err := CheckOutputDir(outDir); err != nil {
		return "", err
	}

	ts := time.Now()
	if len(calcs) > 0 {
		ts = calcs[0].TS
	}
	if calcs == nil {
		calcs = []regression.Calculation{}
	}

	data, err := json.MarshalIndent(calcs, "", "  ")
	if err != nil {
		return "", bgerrors.InternalError("failed to encode calculations", err)
	}

	path := filepath.Join(outDir, FileName(ts))
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", bgerrors.InvalidOutputDirError(outDir, err)
	}
	return path, nil
}

// CheckOutputDir reports whether outDir exists and is a directory.
func CheckOutputDir(outDir string) error {
	info, err := os.Stat(outDir)
	if err != nil {
		return bgerrors.InvalidOutputDirError(outDir, err)
	}
	if !info.IsDir() {
		return bgerrors.InvalidOutputDirError(outDir, fmt.Errorf("%s is not a directory", outDir))
	}
	return nil
}

// ReadJSON loads a report written by WriteJSON.
func ReadJSON(path string) ([]regression.Calculation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bgerrors.BadFileContentsError(path, err)
	}
	var calcs []regression.Calculation
	if err := json.Unmarshal(data, &calcs); err != nil {
		return nil, bgerrors.BadJSONError(path, err)
	}
	return calcs, nil
}
