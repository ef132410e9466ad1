package logger

import (
	"fmt"
	"strings"
	"testing"

	"github.com/arloliu/scanplan/types"
)

// TestLogger writes log lines through testing.TB so they show up with -v
// and are attributed to the test that produced them.
type TestLogger struct {
	tb testing.TB
}

var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a logger bound to tb.
//
// Example:
//
//	est, err := stats.NewEstimator(ctx, cfg, spec, parts, sampler, status,
//	    stats.WithLogger(logger.NewTest(t)))
func NewTest(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

// Debug logs a debug-level line.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Logf("DEBUG: %s%s", msg, formatKeyValues(keysAndValues))
}

// Info logs an info-level line.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Logf("INFO: %s%s", msg, formatKeyValues(keysAndValues))
}

// Warn logs a warn-level line.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Logf("WARN: %s%s", msg, formatKeyValues(keysAndValues))
}

// Error logs an error-level line.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Logf("ERROR: %s%s", msg, formatKeyValues(keysAndValues))
}

// Fatal logs and fails the test immediately.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.tb.Helper()
	l.tb.Fatalf("FATAL: %s%s", msg, formatKeyValues(keysAndValues))
}

func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, " %v=<missing>", keysAndValues[i])
		}
	}

	return sb.String()
}
