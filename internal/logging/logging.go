// Package logging provides the leveled, field-carrying logger shared by
// every bridge component.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	// LevelDebug is for state transitions and per-event tracing.
	LevelDebug Level = iota
	// LevelInfo is for lifecycle messages.
	LevelInfo
	// LevelWarn is for soft failures that degrade to a fallback.
	LevelWarn
	// LevelError is for failures surfaced to a caller.
	LevelError
)

// String returns the upper-case level name.
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
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name. Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// sink is shared between a logger and all loggers derived from it, so
// SetLevel on the root affects every component.
type sink struct {
	mu       sync.Mutex
	level    Level
	output   io.Writer
	disabled bool
	now      func() time.Time
}

// Logger writes leveled lines with a prefix and key=value fields.
type Logger struct {
	sink   *sink
	prefix string
	fields map[string]any
}

// Config configures a root logger.
type Config struct {
	Level  Level
	Output io.Writer
	Prefix string
}

// DefaultConfig returns Info level to stderr with the "keybridge" prefix.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
		Prefix: "keybridge",
	}
}

// New creates a root logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		sink: &sink{
			level:  cfg.Level,
			output: cfg.Output,
			now:    time.Now,
		},
		prefix: cfg.Prefix,
		fields: map[string]any{},
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{
		sink:   &sink{disabled: true, output: io.Discard, now: time.Now},
		fields: map[string]any{},
	}
}

// OrDiscard returns l, or a discard logger when l is nil.
func OrDiscard(l *Logger) *Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithField returns a child logger carrying key=value.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a child logger carrying all given fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, prefix: l.prefix, fields: merged}
}

// WithComponent tags the logger with the emitting component.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// SetLevel changes the minimum level for this logger and all its children.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// Enabled reports whether a line at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return !l.sink.disabled && level >= l.sink.level
}

// Debug logs at LevelDebug.
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }

// Info logs at LevelInfo.
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args...) }

// Warn logs at LevelWarn.
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args...) }

// Error logs at LevelError.
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *Logger) log(level Level, msg string, args ...any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled || level < s.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(s.now().Format("2006-01-02T15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.prefix != "" {
		b.WriteString(l.prefix)
		b.WriteString(": ")
	}
	b.WriteString(msg)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
		}
		b.WriteString("}")
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(s.output, b.String())
}
