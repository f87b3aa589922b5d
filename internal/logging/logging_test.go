package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDefaultLogDir(t *testing.T) {
	dir := DefaultLogDir()
	if dir == "" {
		t.Fatal("DefaultLogDir returned empty string")
	}
	if !strings.Contains(dir, ".benchgate") || filepath.Base(dir) != "logs" {
		t.Errorf("DefaultLogDir should end in .benchgate/logs, got: %s", dir)
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := DefaultLogPath()
	if filepath.Base(path) != "benchgate.log" {
		t.Errorf("DefaultLogPath should end with benchgate.log, got: %s", path)
	}
	if filepath.Dir(path) != DefaultLogDir() {
		t.Errorf("DefaultLogPath should live in DefaultLogDir, got: %s", path)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got: %s", cfg.Level)
	}
	if cfg.MaxSizeMB != 10 {
		t.Errorf("expected MaxSizeMB 10, got: %d", cfg.MaxSizeMB)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if cfg.WriteToStderr {
		t.Error("expected WriteToStderr to be false")
	}
}

func TestDebugConfig(t *testing.T) {
	if cfg := DebugConfig(); cfg.Level != "debug" {
		t.Errorf("expected level 'debug', got: %s", cfg.Level)
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "test.log")

	logger, cleanup, err := Setup(Config{
		Level:     "debug",
		FilePath:  logPath,
		MaxSizeMB: 1,
		MaxFiles:  3,
	})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	logger.Debug("regressions_calculated", "pairs", 2)
	cleanup()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file was not created: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, data)
	}
	if record["msg"] != "regressions_calculated" {
		t.Errorf("unexpected msg: %v", record["msg"])
	}
	if record["pairs"] != float64(2) {
		t.Errorf("unexpected pairs attr: %v", record["pairs"])
	}
}

func TestSetup_LevelFilters(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")

	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: logPath})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	cleanup()

	data, _ := os.ReadFile(logPath)
	if strings.Contains(string(data), "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(string(data), "shown") {
		t.Error("warn record should be written")
	}
}

func TestSetup_EmptyPath(t *testing.T) {
	if _, _, err := Setup(Config{Level: "debug"}); err == nil {
		t.Error("expected error for empty file path")
	}
}

func TestNewQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQuiet(&buf, "")

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warned")

	out := buf.String()
	if strings.Contains(out, `"msg":"info"`) || strings.Contains(out, `"msg":"debug"`) {
		t.Errorf("quiet logger should drop below warn, got: %s", out)
	}
	if !strings.Contains(out, `"msg":"warned"`) {
		t.Errorf("quiet logger should keep warn, got: %s", out)
	}
}

func TestNewQuiet_ExplicitLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQuiet(&buf, "error")

	logger.Warn("warned")
	logger.Error("failed")

	out := buf.String()
	if strings.Contains(out, `"msg":"warned"`) {
		t.Errorf("error-level logger should drop warn, got: %s", out)
	}
	if !strings.Contains(out, `"msg":"failed"`) {
		t.Errorf("error-level logger should keep error, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"DEBUG", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input).String(); got != tt.expected {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

// ============================================================================
// Writer Rotation Tests
// ============================================================================

// smallWriter returns a writer that rotates after 1 KB.
func smallWriter(t *testing.T, path string, maxFiles int) *RotatingWriter {
	t.Helper()
	w, err := NewRotatingWriter(path, 1, maxFiles)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	w.maxSize = 1024
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestRotatingWriter_Rotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	w := smallWriter(t, logPath, 3)

	chunk := bytes.Repeat([]byte("x"), 800)
	for i := 0; i < 2; i++ {
		if _, err := w.Write(chunk); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Error("main log file should exist")
	}
	rotated, err := os.ReadFile(logPath + ".1")
	if err != nil {
		t.Fatal("rotated file .1 should exist")
	}
	if len(rotated) != len(chunk) {
		t.Errorf("rotated file should hold the first chunk, got %d bytes", len(rotated))
	}
}

func TestRotatingWriter_OversizedFirstWrite(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "big.log")
	w := smallWriter(t, logPath, 3)

	if _, err := w.Write(bytes.Repeat([]byte("z"), 4096)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// an empty file is never rotated away
	if _, err := os.Stat(logPath + ".1"); !os.IsNotExist(err) {
		t.Error("no rotation expected for the first write")
	}
}

func TestRotatingWriter_MaxFilesLimit(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "maxfiles.log")
	w := smallWriter(t, logPath, 2)

	chunk := bytes.Repeat([]byte("y"), 1000)
	for i := 0; i < 6; i++ {
		_, _ = w.Write(chunk)
	}

	for _, suffix := range []string{".1", ".2"} {
		if _, err := os.Stat(logPath + suffix); err != nil {
			t.Errorf("rotated file %s should exist", suffix)
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("rotated file .3 should not exist (beyond maxFiles)")
	}
}

func TestRotatingWriter_AppendsToExisting(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "append.log")
	if err := os.WriteFile(logPath, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewRotatingWriter(logPath, 1, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	_, _ = w.Write([]byte("new\n"))
	if err := w.Sync(); err != nil {
		t.Errorf("sync failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("close failed: %v", err)
	}

	data, _ := os.ReadFile(logPath)
	if string(data) != "old\nnew\n" {
		t.Errorf("expected appended content, got %q", data)
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := NewRotatingWriter(filepath.Join(t.TempDir(), "closed.log"), 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	if _, err := w.Write([]byte("late\n")); err == nil {
		t.Error("expected error writing to a closed writer")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "concurrent.log")
	w, err := NewRotatingWriter(logPath, 10, 3)
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = fmt.Fprintf(w, `{"id":%d,"iter":%d}`+"\n", id, j)
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 1000 {
		t.Errorf("expected 1000 lines, got %d", lines)
	}
}
