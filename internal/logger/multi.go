package logger

import (
	"time"

	"github.com/harrison/fathom/internal/walker"
)

// MultiLogger fans every call out to a fixed set of loggers.
type MultiLogger struct {
	loggers []Logger
}

// Multi returns a logger that writes to all non-nil loggers in order.
func Multi(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogWalkStart(root string) {
	for _, l := range m.loggers {
		l.LogWalkStart(root)
	}
}

func (m *MultiLogger) LogWalkSummary(root string, result *walker.Result, duration time.Duration) {
	for _, l := range m.loggers {
		l.LogWalkSummary(root, result, duration)
	}
}
