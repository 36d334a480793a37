package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides leveled, printf-style logging on top of zap
type Logger struct {
	sugar *zap.SugaredLogger
	core  zapcore.Core
	level zap.AtomicLevel
}

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	ErrorLevel
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var (
	defaultLogger *Logger
	defaultMu     sync.RWMutex
)

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	return cfg
}

// New creates a new logger instance
func New(output io.Writer, level LogLevel) *Logger {
	atomic := zap.NewAtomicLevelAt(level.zapLevel())
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(output), atomic)
	return &Logger{
		sugar: zap.New(core).Sugar(),
		core:  core,
		level: atomic,
	}
}

// NewFileLogger creates a logger that writes to a file
func NewFileLogger(logPath string, level LogLevel) (*Logger, error) {
	// Ensure log directory exists
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return New(file, level), nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{
		sugar: zap.NewNop().Sugar(),
		core:  zapcore.NewNopCore(),
		level: zap.NewAtomicLevelAt(zapcore.ErrorLevel),
	}
}

// Tee returns a logger that also writes to output at the given level. The
// level of the receiver still governs its own output.
func (l *Logger) Tee(output io.Writer, level LogLevel) *Logger {
	extra := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(output), level.zapLevel())
	core := zapcore.NewTee(l.core, extra)
	return &Logger{
		sugar: zap.New(core).Sugar(),
		core:  core,
		level: l.level,
	}
}

// Default returns the default logger instance
func Default() *Logger {
	defaultMu.RLock()
	logger := defaultLogger
	defaultMu.RUnlock()
	if logger != nil {
		return logger
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(os.Stderr, ErrorLevel)
	}
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(logger *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.level.SetLevel(level.zapLevel())
}

// GetLevel returns the current logging level
func (l *Logger) GetLevel() LogLevel {
	switch l.level.Level() {
	case zapcore.DebugLevel:
		return DebugLevel
	case zapcore.InfoLevel:
		return InfoLevel
	default:
		return ErrorLevel
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debugf is an alias for Debug
func (l *Logger) Debugf(format string, v ...interface{}) {
	l.Debug(format, v...)
}

// Infof is an alias for Info
func (l *Logger) Infof(format string, v ...interface{}) {
	l.Info(format, v...)
}

// Errorf is an alias for Error
func (l *Logger) Errorf(format string, v ...interface{}) {
	l.Error(format, v...)
}

// WithField returns a logger with a field added to all messages
func (l *Logger) WithField(key, value string) *Logger {
	return &Logger{
		sugar: l.sugar.With(key, value),
		core:  l.core.With([]zapcore.Field{zap.String(key, value)}),
		level: l.level,
	}
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// Package-level convenience functions

// Debug logs a debug message using the default logger
func Debug(format string, v ...interface{}) {
	Default().Debug(format, v...)
}

// Info logs an info message using the default logger
func Info(format string, v ...interface{}) {
	Default().Info(format, v...)
}

// Error logs an error message using the default logger
func Error(format string, v ...interface{}) {
	Default().Error(format, v...)
}

// SetLevel sets the logging level for the default logger
func SetLevel(level LogLevel) {
	Default().SetLevel(level)
}
