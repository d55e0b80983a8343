package logging

// Leveled logger used by the session, dispatcher and command line.

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging verbosity level
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelInfo
	LogLevelVerbose
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelSilent:  "silent",
	LogLevelError:   "error",
	LogLevelInfo:    "info",
	LogLevelVerbose: "verbose",
	LogLevelDebug:   "debug",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel converts a level name (as used in config files and flags) to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	if want == "" {
		return LogLevelInfo, nil
	}
	for level, name := range levelNames {
		if name == want {
			return level, nil
		}
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q (expected silent, error, info, verbose, debug)", s)
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelSilent:
		return zerolog.Disabled
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Logger wraps a zerolog logger with the LogLevel scale.
// A nil *Logger is valid and discards everything.
type Logger struct {
	mu    sync.Mutex
	level LogLevel
	zl    zerolog.Logger
	file  *os.File
}

// NewLogger creates a logger writing human-readable output to stderr and,
// when logFile is set, JSON lines to that file.
func NewLogger(level LogLevel, logFile string) (*Logger, error) {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	var out io.Writer = console
	var file *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		out = zerolog.MultiLevelWriter(console, f)
	}
	l := NewLoggerWithWriter(level, out)
	l.file = file
	return l, nil
}

// NewLoggerWithWriter creates a logger emitting JSON lines to w.
func NewLoggerWithWriter(level LogLevel, w io.Writer) *Logger {
	zl := zerolog.New(w).With().Timestamp().Logger().Level(level.zerolog())
	return &Logger{level: level, zl: zl}
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.zl = l.zl.Level(level.zerolog())
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	if l == nil {
		return LogLevelSilent
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level != LogLevelSilent && l.GetLevel() >= level
}

// Event starts a structured event at the given level. The returned event is
// nil (and every method on it a no-op) when the level is disabled.
func (l *Logger) Event(level LogLevel) *zerolog.Event {
	if !l.Enabled(level) {
		return nil
	}
	l.mu.Lock()
	zl := l.zl
	l.mu.Unlock()
	switch level {
	case LogLevelError:
		return zl.Error()
	case LogLevelInfo:
		return zl.Info()
	case LogLevelVerbose:
		return zl.Debug()
	default:
		return zl.Trace()
	}
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.Event(LogLevelError).Msgf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.Event(LogLevelInfo).Msgf(format, v...)
}

// Verbose logs a verbose message
func (l *Logger) Verbose(format string, v ...interface{}) {
	l.Event(LogLevelVerbose).Msgf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.Event(LogLevelDebug).Msgf(format, v...)
}

// LogHex logs hex data (for debug level)
func (l *Logger) LogHex(label string, data []byte) {
	ev := l.Event(LogLevelDebug)
	if ev == nil {
		return
	}
	ev.Int("len", len(data)).Msgf("%s: %s", label, FormatHex(data))
}

// FormatHex renders data as space-separated byte pairs.
func FormatHex(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(data) * 3)
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(hex.EncodeToString([]byte{c}))
	}
	return b.String()
}
