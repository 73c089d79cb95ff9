package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/fathom/internal/walker"
)

// FileLogger logs walk events to files in the log directory.
// It creates a timestamped log file per run and maintains a latest.log
// symlink pointing to the most recent run. Unlike ConsoleLogger it records
// every broken link and error in the summary.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log, with a counter suffix when two runs share a second
	stamp := time.Now().Format("20060102-150405")
	var (
		runFile string
		file    *os.File
		err     error
	)
	for i := 0; ; i++ {
		name := fmt.Sprintf("run-%s.log", stamp)
		if i > 0 {
			name = fmt.Sprintf("run-%s-%d.log", stamp, i)
		}
		runFile = filepath.Join(logDir, name)
		file, err = os.OpenFile(runFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			break
		}
		if !os.IsExist(err) || i >= 99 {
			return nil, fmt.Errorf("failed to create run log file: %w", err)
		}
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== fathom Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }
func (fl *FileLogger) LogInfo(message string)  { fl.logWithLevel("INFO", message) }
func (fl *FileLogger) LogWarn(message string)  { fl.logWithLevel("WARN", message) }
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogWalkStart logs the start of a walk at INFO level.
func (fl *FileLogger) LogWalkStart(root string) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Walking %s\n", timestamp(), root))
}

// LogWalkSummary logs the walk summary at INFO level, followed by every
// broken symlink and error.
func (fl *FileLogger) LogWalkSummary(root string, result *walker.Result, duration time.Duration) {
	if !fl.shouldLog("info") || result == nil {
		return
	}

	ts := timestamp()
	status := "CLEAN"
	if result.HasErrors() {
		status = "ERRORS"
	} else if len(result.BrokenSymlinks) > 0 {
		status = "BROKEN LINKS"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === WALK SUMMARY ===\n", ts)
	fmt.Fprintf(&b, "[%s] Root:            %s\n", ts, root)
	fmt.Fprintf(&b, "[%s] Files:           %d\n", ts, len(result.Files))
	fmt.Fprintf(&b, "[%s] Directories:     %d\n", ts, len(result.Dirs))
	fmt.Fprintf(&b, "[%s] Broken symlinks: %d\n", ts, len(result.BrokenSymlinks))
	fmt.Fprintf(&b, "[%s] Errors:          %d\n", ts, len(result.Errors))
	fmt.Fprintf(&b, "[%s] Total time:      %.3fs\n", ts, duration.Seconds())
	fmt.Fprintf(&b, "[%s] Status:          %s\n", ts, status)

	if len(result.BrokenSymlinks) > 0 {
		fmt.Fprintf(&b, "[%s] Broken symlinks:\n", ts)
		for _, p := range result.BrokenSymlinks {
			fmt.Fprintf(&b, "[%s]   - %s\n", ts, p)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "[%s] Errors:\n", ts)
		for _, err := range result.Errors {
			fmt.Fprintf(&b, "[%s]   - %v\n", ts, err)
		}
	}
	fmt.Fprintf(&b, "[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339))

	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
