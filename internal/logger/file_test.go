package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/fathom/internal/walker"
)

func readLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.Path())
	if err != nil {
		t.Fatalf("failed to read run log: %v", err)
	}
	return string(data)
}

// TestLogDirectoryCreation verifies .fathom/logs/ is created on initialization
func TestLogDirectoryCreation(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), ".fathom", "logs")

	logger, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		t.Errorf("Expected log directory %s to exist, but it doesn't", logDir)
	}
}

// TestLatestSymlink verifies latest.log points at the run file
func TestLatestSymlink(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	logger, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer logger.Close()

	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("Expected latest.log symlink to exist: %v", err)
	}
	if target != filepath.Base(logger.Path()) {
		t.Errorf("latest.log -> %q, want %q", target, filepath.Base(logger.Path()))
	}
	if !strings.HasPrefix(target, "run-") {
		t.Errorf("Expected symlink to point to run-*.log file, got %s", target)
	}
}

// TestSymlinkUpdate verifies a second run in the same second gets its own
// file and takes over latest.log
func TestSymlinkUpdate(t *testing.T) {
	logDir := t.TempDir()

	first, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	first.Close()

	second, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer second.Close()

	if first.Path() == second.Path() {
		t.Fatalf("expected distinct run files, both are %s", first.Path())
	}
	target, err := os.Readlink(filepath.Join(logDir, "latest.log"))
	if err != nil {
		t.Fatalf("Failed to read symlink: %v", err)
	}
	if target != filepath.Base(second.Path()) {
		t.Errorf("latest.log -> %q, want %q", target, filepath.Base(second.Path()))
	}
}

// TestFileLoggerLevels verifies level filtering in the run log
func TestFileLoggerLevels(t *testing.T) {
	logger, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "warn")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer logger.Close()

	logger.LogDebug("hidden debug")
	logger.LogInfo("hidden info")
	logger.LogWarn("visible warn")
	logger.LogError("visible error")

	content := readLog(t, logger)
	if strings.Contains(content, "hidden") {
		t.Errorf("expected debug/info to be filtered:\n%s", content)
	}
	if !strings.Contains(content, "[WARN] visible warn") || !strings.Contains(content, "[ERROR] visible error") {
		t.Errorf("expected warn and error lines:\n%s", content)
	}
}

// TestFileLoggerWalkSummary verifies every broken link and error is listed
func TestFileLoggerWalkSummary(t *testing.T) {
	logger, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer logger.Close()

	result := &walker.Result{
		Files:          []walker.Entry{{Path: "/srv/a"}},
		BrokenSymlinks: []string{"/srv/dangling"},
		Errors: []error{&walker.DirectoryReadError{
			Path: "/srv/locked",
			Err:  errors.New("permission denied"),
		}},
	}
	logger.LogWalkStart("/srv")
	logger.LogWalkSummary("/srv", result, 250*time.Millisecond)

	content := readLog(t, logger)
	for _, want := range []string{
		"=== fathom Run Log ===",
		"Walking /srv",
		"=== WALK SUMMARY ===",
		"Files:           1",
		"Status:          ERRORS",
		"  - /srv/dangling",
		"  - read directory /srv/locked: permission denied",
		"Total time:      0.250s",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("run log missing %q:\n%s", want, content)
		}
	}
}

// TestFileLoggerCloseIdempotent verifies Close can be called twice and
// writes after Close are dropped
func TestFileLoggerCloseIdempotent(t *testing.T) {
	logger, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	logger.LogInfo("after close")
}
