package ice

import "log"

// Monitor receives human-readable log lines from the executor. Messages are
// supplied as thunks and must be evaluated only when actually consumed, so
// formatting cost is not paid for disabled levels. A Monitor never affects
// control flow.
type Monitor interface {
	// Debug reports routine cache activity.
	Debug(msg func() string)
	// Severe reports terminal item failures, skipped or fatal.
	Severe(msg func() string)
}

// LogLevel controls which monitor messages are evaluated and written.
type LogLevel int

const (
	// LevelDebug writes debug and severe messages.
	LevelDebug LogLevel = iota
	// LevelSevere writes severe messages only.
	LevelSevere
	// LevelOff writes nothing.
	LevelOff
)

// Logger is the Printf-style sink used by LogMonitor.
type Logger interface {
	Printf(format string, v ...any)
}

// stdLogger logs through the standard log package.
type stdLogger struct{}

func (l *stdLogger) Printf(format string, v ...any) {
	log.Printf(format, v...)
}

// LogMonitor writes monitor messages through a Logger, gated by level.
type LogMonitor struct {
	level  LogLevel
	logger Logger
}

// LogMonitorOption configures a LogMonitor.
type LogMonitorOption func(*LogMonitor)

// WithMonitorLogger sets a custom logger for the monitor.
func WithMonitorLogger(logger Logger) LogMonitorOption {
	return func(m *LogMonitor) {
		m.logger = logger
	}
}

// NewLogMonitor creates a LogMonitor at the given level.
func NewLogMonitor(level LogLevel, opts ...LogMonitorOption) *LogMonitor {
	m := &LogMonitor{
		level:  level,
		logger: &stdLogger{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Debug writes a debug message; the thunk runs only when debug is enabled.
func (m *LogMonitor) Debug(msg func() string) {
	if m.level <= LevelDebug {
		m.logger.Printf("[DEBUG] %s", msg())
	}
}

// Severe writes a severe message; the thunk runs only when the level allows.
func (m *LogMonitor) Severe(msg func() string) {
	if m.level <= LevelSevere {
		m.logger.Printf("[SEVERE] %s", msg())
	}
}

// NoopMonitor discards all messages without evaluating the thunks.
type NoopMonitor struct{}

// Debug does nothing.
func (m *NoopMonitor) Debug(msg func() string) {}

// Severe does nothing.
func (m *NoopMonitor) Severe(msg func() string) {}

// Verify interfaces
var (
	_ Monitor = (*LogMonitor)(nil)
	_ Monitor = (*NoopMonitor)(nil)
)
