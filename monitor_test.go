package ice

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// ============================================================================
// Test Helpers
// ============================================================================

// captureLogger records formatted log lines.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) Printf(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

// ============================================================================
// Unit Tests
// ============================================================================

func TestLogMonitor_DebugLevel(t *testing.T) {
	logger := &captureLogger{}
	m := NewLogMonitor(LevelDebug, WithMonitorLogger(logger))

	m.Debug(func() string { return "routine detail" })
	m.Severe(func() string { return "terminal failure" })

	if len(logger.lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(logger.lines))
	}
	if !strings.Contains(logger.lines[0], "[DEBUG] routine detail") {
		t.Errorf("unexpected debug line %q", logger.lines[0])
	}
	if !strings.Contains(logger.lines[1], "[SEVERE] terminal failure") {
		t.Errorf("unexpected severe line %q", logger.lines[1])
	}
}

func TestLogMonitor_SevereLevelSkipsDebugThunk(t *testing.T) {
	logger := &captureLogger{}
	m := NewLogMonitor(LevelSevere, WithMonitorLogger(logger))

	evaluated := false
	m.Debug(func() string {
		evaluated = true
		return "should not be built"
	})
	if evaluated {
		t.Error("debug thunk must not be evaluated below debug level")
	}

	m.Severe(func() string { return "still reported" })
	if len(logger.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(logger.lines))
	}
}

func TestLogMonitor_OffLevelEvaluatesNothing(t *testing.T) {
	logger := &captureLogger{}
	m := NewLogMonitor(LevelOff, WithMonitorLogger(logger))

	evaluated := false
	thunk := func() string {
		evaluated = true
		return "never"
	}
	m.Debug(thunk)
	m.Severe(thunk)

	if evaluated {
		t.Error("no thunk may be evaluated when the monitor is off")
	}
	if len(logger.lines) != 0 {
		t.Errorf("expected no output, got %v", logger.lines)
	}
}

func TestNoopMonitor_NeverEvaluates(t *testing.T) {
	m := &NoopMonitor{}

	m.Debug(func() string {
		t.Error("noop monitor evaluated a debug thunk")
		return ""
	})
	m.Severe(func() string {
		t.Error("noop monitor evaluated a severe thunk")
		return ""
	})
}
