// Package logger provides a small logging interface for meshmap components.
// Packages log debug, info, warn, and error messages without being coupled
// to a specific logging implementation.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "MESHMAP_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Option configures an env logger.
type Option func(*envLogger)

// WithVerbose forces debug messages on regardless of MESHMAP_DEBUG.
func WithVerbose(v bool) Option {
	return func(l *envLogger) { l.verbose = v }
}

// WithQuiet suppresses debug and info messages. Warnings and errors still print.
func WithQuiet(q bool) Option {
	return func(l *envLogger) { l.quiet = q }
}

// WithOutput sends messages to w instead of the standard log output.
func WithOutput(w io.Writer) Option {
	return func(l *envLogger) { l.out = log.New(w, "", log.LstdFlags) }
}

// envLogger implements Logger on top of the standard log package.
type envLogger struct {
	prefix  string
	verbose bool
	quiet   bool
	out     *log.Logger
}

// NewEnvLogger creates a logger that respects the MESHMAP_DEBUG environment variable.
// The prefix is prepended to all log messages (e.g., "[collect]" or "[render]").
func NewEnvLogger(prefix string, opts ...Option) Logger {
	l := &envLogger{prefix: prefix}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *envLogger) printf(format string, args ...interface{}) {
	if l.prefix != "" {
		format = l.prefix + " " + format
	}
	if l.out != nil {
		l.out.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	if l.verbose || os.Getenv(DebugEnv) != "" {
		l.printf("DEBUG: "+format, args...)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) {
	if l.quiet {
		return
	}
	l.printf(format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	l.printf("WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	l.printf("ERROR: "+format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for test assertions.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

// defaultLogger is the package-level default logger.
var defaultLogger = NewEnvLogger("")

// Default returns the default logger for the package.
func Default() Logger {
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultLogger = l
}
