package logger

import (
	"strings"

	"github.com/mborders/logmatic"
)

// New returns a leveled terminal logger. Unknown levels fall back to info.
func New(level string) *logmatic.Logger {
	l := logmatic.NewLogger()
	l.SetLevel(ParseLevel(level))
	l.ExitOnFatal = true
	return l
}

func ParseLevel(level string) logmatic.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logmatic.TRACE
	case "debug":
		return logmatic.DEBUG
	case "warn", "warning":
		return logmatic.WARN
	case "error":
		return logmatic.ERROR
	default:
		return logmatic.INFO
	}
}

// Discard is a logger for tests that only lets fatal messages through.
func Discard() *logmatic.Logger {
	l := logmatic.NewLogger()
	l.SetLevel(logmatic.FATAL)
	l.ExitOnFatal = false
	return l
}
