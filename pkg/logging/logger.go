// Package logging provides a small leveled logger with module tagging.
package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Level represents log level
type Level int

const (
	// LevelDebug is for debug messages
	LevelDebug Level = iota
	// LevelInfo is for informational messages
	LevelInfo
	// LevelWarn is for warning messages
	LevelWarn
	// LevelError is for error messages
	LevelError
	// LevelFatal is for fatal error messages
	LevelFatal
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown strings map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// Logger is the interface for logging. Trailing args are alternating
// key/value pairs appended to the message.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
	WithModule(module string) Logger
	SetLevel(level Level)
}

// SimpleLogger is a basic logger implementation writing to stderr. The
// level is shared across every WithModule copy, so a runtime level
// change applies to all of them.
type SimpleLogger struct {
	module string
	level  *Level
	logger *log.Logger
}

// NewSimpleLogger creates a logger for the given module at the given level.
func NewSimpleLogger(module string, level Level) *SimpleLogger {
	return &SimpleLogger{
		module: module,
		level:  &level,
		logger: log.New(os.Stderr, "", log.LstdFlags),
	}
}

// WithModule returns a copy of the logger tagged with a different module name.
func (l *SimpleLogger) WithModule(module string) Logger {
	return &SimpleLogger{
		module: module,
		level:  l.level,
		logger: l.logger,
	}
}

// SetLevel changes the minimum level that will be emitted.
func (l *SimpleLogger) SetLevel(level Level) {
	*l.level = level
}

func (l *SimpleLogger) log(level Level, msg string, args ...interface{}) {
	if level < *l.level {
		return
	}

	var b strings.Builder
	b.WriteString(level.String())
	if l.module != "" {
		b.WriteString(" [")
		b.WriteString(l.module)
		b.WriteString("]")
	}
	b.WriteString(" ")
	b.WriteString(msg)
	b.WriteString(formatArgs(args))

	l.logger.Print(b.String())

	if level == LevelFatal {
		os.Exit(1)
	}
}

// formatArgs renders alternating key/value pairs as " k=v k=v".
// A trailing odd argument is rendered as-is.
func formatArgs(args []interface{}) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		b.WriteString(" ")
		if i+1 < len(args) {
			fmt.Fprintf(&b, "%v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, "%v", args[i])
		}
	}
	return b.String()
}

// Debug logs a debug message
func (l *SimpleLogger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an informational message
func (l *SimpleLogger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message
func (l *SimpleLogger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message
func (l *SimpleLogger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// Fatal logs a fatal message and exits the process
func (l *SimpleLogger) Fatal(msg string, args ...interface{}) {
	l.log(LevelFatal, msg, args...)
}
