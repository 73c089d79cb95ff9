package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/harrison/fathom/internal/walker"
)

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	levels := []string{"trace", "debug", "info", "warn", "error"}

	for ci, configured := range levels {
		for mi, message := range levels {
			shouldAppear := mi >= ci
			name := configured + " vs " + message

			t.Run(name, func(t *testing.T) {
				buf := &bytes.Buffer{}
				logger := NewConsoleLogger(buf, configured)
				logAt(logger, message, message+" msg")

				contains := strings.Contains(buf.String(), message+" msg")
				if shouldAppear && !contains {
					t.Errorf("expected %q message to appear at level %q", message, configured)
				}
				if !shouldAppear && contains {
					t.Errorf("expected %q message to be filtered at level %q, got %q", message, configured, buf.String())
				}
			})
		}
	}
}

func logAt(l Logger, level, message string) {
	switch level {
	case "trace":
		l.LogTrace(message)
	case "debug":
		l.LogDebug(message)
	case "info":
		l.LogInfo(message)
	case "warn":
		l.LogWarn(message)
	case "error":
		l.LogError(message)
	}
}

// TestNormalizeLogLevel verifies case folding and the info fallback
func TestNormalizeLogLevel(t *testing.T) {
	tests := map[string]string{
		"DEBUG":   "debug",
		" Warn ":  "warn",
		"":        "info",
		"verbose": "info",
		"trace":   "trace",
	}
	for in, want := range tests {
		if got := normalizeLogLevel(in); got != want {
			t.Errorf("normalizeLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestSummaryRespectsLevel verifies walk summaries are INFO level
func TestSummaryRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "warn")

	logger.LogWalkStart("/srv")
	logger.LogWalkSummary("/srv", &walker.Result{}, time.Second)

	if buf.Len() != 0 {
		t.Errorf("expected no output at warn level, got %q", buf.String())
	}
}
