// Package logger is the small logging interface shared by tmuxmon's
// packages. Components take a Logger so tests can capture what they report.
//
// While the dashboard is on screen the terminal belongs to Bubble Tea, so the
// CLI points the standard log package at a file (see DebugLogFile) before any
// of these loggers write.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// DebugEnv is the environment variable that enables debug output.
const DebugEnv = "TMUXMON_DEBUG"

// DebugLogFile is where log output goes while the TUI is running.
const DebugLogFile = "tmuxmon-debug.log"

// Level names used in captured messages.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// DebugEnabled reports whether TMUXMON_DEBUG is set.
func DebugEnabled() bool {
	return os.Getenv(DebugEnv) != ""
}

// Logger is implemented by every logger in this package. Methods take
// printf-style arguments.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// envLogger writes through the standard log package. Debug lines are
// dropped unless TMUXMON_DEBUG is set.
type envLogger struct {
	prefix string
}

// NewEnvLogger returns a logger that tags every line with prefix,
// e.g. "[sampler]".
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

func (l *envLogger) Debug(format string, args ...any) {
	if DebugEnabled() {
		l.print("", format, args)
	}
}

func (l *envLogger) Info(format string, args ...any)  { l.print("", format, args) }
func (l *envLogger) Warn(format string, args ...any)  { l.print("WARN: ", format, args) }
func (l *envLogger) Error(format string, args ...any) { l.print("ERROR: ", format, args) }

func (l *envLogger) print(tag, format string, args []any) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix == "" {
		log.Print(tag + msg)
		return
	}
	log.Print(l.prefix + " " + tag + msg)
}

type noopLogger struct{}

// Noop returns a logger that discards everything.
func Noop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// LogMessage is one captured line.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger keeps messages in memory for assertions. Safe for concurrent
// writers; use Snapshot to read while they may still be running.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger returns an empty BufferLogger.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{}
}

func (l *BufferLogger) Debug(format string, args ...any) { l.add(LevelDebug, format, args) }
func (l *BufferLogger) Info(format string, args ...any)  { l.add(LevelInfo, format, args) }
func (l *BufferLogger) Warn(format string, args ...any)  { l.add(LevelWarn, format, args) }
func (l *BufferLogger) Error(format string, args ...any) { l.add(LevelError, format, args) }

func (l *BufferLogger) add(level, format string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Snapshot returns a copy of the captured messages.
func (l *BufferLogger) Snapshot() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogMessage(nil), l.Messages...)
}

// HasLevel reports whether anything was logged at level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Snapshot() {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains reports whether a message at level contains substr.
func (l *BufferLogger) Contains(level, substr string) bool {
	for _, m := range l.Snapshot() {
		if m.Level == level && strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear drops all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = nil
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("")
)

// Default returns the process-wide logger used where no component logger
// is wired.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
