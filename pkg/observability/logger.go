package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel is the minimum severity a logger emits
type LogLevel slog.Level

const (
	DebugLevel = LogLevel(slog.LevelDebug)
	InfoLevel  = LogLevel(slog.LevelInfo)
	WarnLevel  = LogLevel(slog.LevelWarn)
	ErrorLevel = LogLevel(slog.LevelError)
)

// ParseLogLevel maps a config string onto a level. Unrecognized values fall
// back to info rather than failing startup.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger emits structured JSON log lines. It is immutable: the With helpers
// return derived loggers, so one instance can be shared across requests and
// the process-wide logger can be swapped atomically on config reload.
type Logger struct {
	slog *slog.Logger
}

// NewLogger creates a JSON logger writing to output at the given level.
// A nil output falls back to stdout.
func NewLogger(level LogLevel, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: slog.Level(level)})
	return &Logger{slog: slog.New(handler)}
}

// WithField returns a logger that attaches key=value to every line
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{slog: l.slog.With(key, value)}
}

// WithFields returns a logger that attaches every entry of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{slog: l.slog.With(args...)}
}

// WithError attaches err under the "error" key. A nil error leaves the
// logger unchanged.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) Debug(msg string) { l.slog.Debug(msg) }

func (l *Logger) Info(msg string) { l.slog.Info(msg) }

func (l *Logger) Warn(msg string) { l.slog.Warn(msg) }

func (l *Logger) Error(msg string) { l.slog.Error(msg) }
