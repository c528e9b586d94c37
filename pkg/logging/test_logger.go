package logging

import (
	"fmt"
	"strings"
	"sync"
)

// TestLogEntry is a single captured log record.
type TestLogEntry struct {
	Level   Level
	Module  string
	Message string
	Args    []interface{}
}

// TestLogger captures log entries in memory for assertions in tests.
// It is safe for concurrent use.
type TestLogger struct {
	module  string
	entries *[]TestLogEntry
	shared  *sync.Mutex
}

// NewTestLogger creates a capturing logger.
func NewTestLogger() *TestLogger {
	entries := make([]TestLogEntry, 0)
	return &TestLogger{
		entries: &entries,
		shared:  &sync.Mutex{},
	}
}

// WithModule returns a logger sharing the same entry buffer.
func (l *TestLogger) WithModule(module string) Logger {
	return &TestLogger{
		module:  module,
		entries: l.entries,
		shared:  l.shared,
	}
}

// SetLevel is a no-op; the test logger captures everything.
func (l *TestLogger) SetLevel(Level) {}

func (l *TestLogger) record(level Level, msg string, args ...interface{}) {
	l.shared.Lock()
	defer l.shared.Unlock()
	*l.entries = append(*l.entries, TestLogEntry{
		Level:   level,
		Module:  l.module,
		Message: msg,
		Args:    args,
	})
}

// Entries returns a copy of all captured entries.
func (l *TestLogger) Entries() []TestLogEntry {
	l.shared.Lock()
	defer l.shared.Unlock()
	out := make([]TestLogEntry, len(*l.entries))
	copy(out, *l.entries)
	return out
}

// HasMessage reports whether any captured entry contains the substring.
func (l *TestLogger) HasMessage(substr string) bool {
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Debug records a debug entry
func (l *TestLogger) Debug(msg string, args ...interface{}) { l.record(LevelDebug, msg, args...) }

// Info records an info entry
func (l *TestLogger) Info(msg string, args ...interface{}) { l.record(LevelInfo, msg, args...) }

// Warn records a warn entry
func (l *TestLogger) Warn(msg string, args ...interface{}) { l.record(LevelWarn, msg, args...) }

// Error records an error entry
func (l *TestLogger) Error(msg string, args ...interface{}) { l.record(LevelError, msg, args...) }

// Fatal records a fatal entry without exiting
func (l *TestLogger) Fatal(msg string, args ...interface{}) { l.record(LevelFatal, msg, args...) }

var _ Logger = (*TestLogger)(nil)

// String renders an entry for test failure output.
func (e TestLogEntry) String() string {
	return fmt.Sprintf("%s [%s] %s %v", e.Level, e.Module, e.Message, e.Args)
}
