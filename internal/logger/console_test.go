package logger

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/fathom/internal/walker"
)

var timestampPrefix = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] `)

// TestConsoleLoggerFormat verifies the "[HH:MM:SS] [LEVEL] msg" layout
func TestConsoleLoggerFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	logger.LogWarn("not a file/directory/symlink artifact: /dev/null")

	line := buf.String()
	if !timestampPrefix.MatchString(line) {
		t.Errorf("expected timestamp prefix, got %q", line)
	}
	if !strings.Contains(line, "[WARN] not a file/directory/symlink artifact: /dev/null\n") {
		t.Errorf("unexpected line %q", line)
	}
}

// TestConsoleLoggerNilWriter verifies a nil writer is silently ignored
func TestConsoleLoggerNilWriter(t *testing.T) {
	logger := NewConsoleLogger(nil, "trace")
	logger.LogInfo("dropped")
	logger.LogWalkStart("/")
	logger.LogWalkSummary("/", &walker.Result{}, time.Second)
}

// TestConsoleLoggerNoColorForBuffers verifies color is off for non-TTY writers
func TestConsoleLoggerNoColorForBuffers(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	if logger.colorOutput {
		t.Fatal("expected color output to be disabled for a buffer")
	}

	logger.LogError("boom")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("expected no ANSI codes, got %q", buf.String())
	}
}

// TestLogWalkStart verifies the start line
func TestLogWalkStart(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogWalkStart("/srv/data")

	if !strings.Contains(buf.String(), "Walking /srv/data") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

// TestLogWalkSummary verifies counts and duration in the summary
func TestLogWalkSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	result := &walker.Result{
		Files:          []walker.Entry{{Path: "/a"}, {Path: "/b"}},
		Dirs:           []walker.Entry{{Path: "/d"}},
		BrokenSymlinks: []string{"/l1", "/l2", "/l3"},
		Errors:         []error{errors.New("read directory /x: permission denied")},
	}
	logger.LogWalkSummary("/root", result, 1500*time.Millisecond)

	out := buf.String()
	for _, want := range []string{
		"=== Walk Summary ===",
		"Root: /root",
		"Files: 2",
		"Directories: 1",
		"Broken symlinks: 3",
		"Errors: 1",
		"Duration: 1s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

// TestConsoleLoggerConcurrent verifies lines are not interleaved
func TestConsoleLoggerConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogDebug("concurrent message")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 50 {
		t.Fatalf("expected 50 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "[DEBUG] concurrent message") {
			t.Errorf("corrupted line %q", line)
		}
	}
}

// TestFormatDuration verifies human-readable durations
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{340 * time.Millisecond, "340ms"},
		{0, "0ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Second, "1h0m1s"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestMultiLogger verifies fan-out and nil skipping
func TestMultiLogger(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	multi := Multi(NewConsoleLogger(a, "info"), nil, NewConsoleLogger(b, "debug"))

	multi.LogDebug("only b")
	multi.LogInfo("both")
	multi.LogWalkSummary("/r", &walker.Result{}, 0)

	if strings.Contains(a.String(), "only b") {
		t.Errorf("info logger should filter debug, got %q", a.String())
	}
	for _, buf := range []*bytes.Buffer{a, b} {
		if !strings.Contains(buf.String(), "both") || !strings.Contains(buf.String(), "Walk Summary") {
			t.Errorf("expected fan-out to every logger, got %q", buf.String())
		}
	}

	var _ walker.Logger = multi
	var _ Logger = NewNoOpLogger()
	var _ Logger = (*FileLogger)(nil)
}
