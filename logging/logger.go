// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer WorkflowLogger with contextual
// helpers (session, component) and domain specific helpers for step
// execution, strategy decisions and external notifications.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string onto a LogLevel. Unknown values
// resolve to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for codemesh. This allows
// users to provide their own logger implementation or use the built-in
// adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// WorkflowLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type WorkflowLogger struct {
	logger    *slog.Logger
	context   map[string]interface{}
	component string
	sessionID string
}

// LoggerConfig configures construction of a WorkflowLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	SessionID   string
	CustomAttrs map[string]interface{}
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true, CustomAttrs: map[string]interface{}{}}
}

// NewLogger builds a WorkflowLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *WorkflowLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return &WorkflowLogger{logger: slog.New(handler), context: map[string]interface{}{}, component: cfg.Component, sessionID: cfg.SessionID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *WorkflowLogger) clone() *WorkflowLogger {
	nl := *l
	nl.context = map[string]interface{}{}
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *WorkflowLogger) WithContext(key string, value interface{}) *WorkflowLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (step, router, proxy, group, etc.).
func (l *WorkflowLogger) WithComponent(c string) *WorkflowLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession attaches the owning session identifier.
func (l *WorkflowLogger) WithSession(sid string) *WorkflowLogger {
	nl := l.clone()
	nl.sessionID = sid
	return nl
}

func (l *WorkflowLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// log emits msg with the contextual attributes followed by the call site's
// alternating key/value args, matching the slog convention the Logger
// interface uses everywhere.
func (l *WorkflowLogger) log(level slog.Level, msg string, args ...any) {
	kv := make([]any, 0, 2*len(l.context)+4+len(args))
	for _, a := range l.buildAttrs() {
		kv = append(kv, a)
	}
	kv = append(kv, args...)
	l.logger.Log(context.Background(), level, msg, kv...)
}

// Debug logs at debug level.
func (l *WorkflowLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

// Info logs at info level.
func (l *WorkflowLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *WorkflowLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

// Error logs at error level.
func (l *WorkflowLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

// ErrorWithStack logs an error plus a runtime stack snapshot.
func (l *WorkflowLogger) ErrorWithStack(err error, msg string, args ...any) {
	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)
	kv := append([]any{
		"error", err.Error(),
		"error_type", fmt.Sprintf("%T", err),
		"stack_trace", string(stack[:n]),
	}, args...)
	l.log(slog.LevelError, msg, kv...)
}

// LogStepExecution records execution details for a step handler invocation.
func (l *WorkflowLogger) LogStepExecution(step, function string, dur time.Duration, err error) {
	if err != nil {
		l.log(slog.LevelError, "step execution failed",
			"step", step, "function", function, "duration", dur, "error", err.Error())
		return
	}
	l.log(slog.LevelDebug, "step executed",
		"step", step, "function", function, "duration", dur)
}

// LogDecision records a selection/termination strategy decision including
// whether the fallback path was taken.
func (l *WorkflowLogger) LogDecision(kind, raw, outcome string, fallback bool) {
	level := slog.LevelDebug
	msg := "strategy decision"
	if fallback {
		level = slog.LevelWarn
		msg = "strategy decision fell back to default"
	}
	l.log(level, msg,
		"decision_kind", kind, "raw", raw, "outcome", outcome, "fallback", fallback)
}

// LogNotification records an external notification delivery attempt.
func (l *WorkflowLogger) LogNotification(topic string, err error) {
	if err != nil {
		l.log(slog.LevelWarn, "external notification dropped", "topic", topic, "error", err.Error())
		return
	}
	l.log(slog.LevelDebug, "external notification delivered", "topic", topic)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *WorkflowLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("operation completed", "operation", op, "duration", time.Since(start)) }
}

// StepExecution reports a step handler invocation through any Logger, using
// the richer WorkflowLogger form when available.
func StepExecution(l Logger, step, function string, dur time.Duration, err error) {
	if wl, ok := l.(*WorkflowLogger); ok {
		wl.LogStepExecution(step, function, dur, err)
		return
	}
	if err != nil {
		l.Error("step execution failed",
			"step", step, "function", function, "duration", dur, "error", err.Error())
		return
	}
	l.Debug("step executed", "step", step, "function", function, "duration", dur)
}

// Decision reports a strategy decision through any Logger.
func Decision(l Logger, kind, raw, outcome string, fallback bool) {
	if wl, ok := l.(*WorkflowLogger); ok {
		wl.LogDecision(kind, raw, outcome, fallback)
		return
	}
	if fallback {
		l.Warn("strategy decision fell back to default",
			"decision_kind", kind, "raw", raw, "outcome", outcome)
		return
	}
	l.Debug("strategy decision", "decision_kind", kind, "raw", raw, "outcome", outcome)
}

// Notification reports an external delivery attempt through any Logger.
func Notification(l Logger, topic string, err error) {
	if wl, ok := l.(*WorkflowLogger); ok {
		wl.LogNotification(topic, err)
		return
	}
	if err != nil {
		l.Warn("external notification dropped", "topic", topic, "error", err.Error())
		return
	}
	l.Debug("external notification delivered", "topic", topic)
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}
