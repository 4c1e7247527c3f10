// Package logger provides logging for pagechat.
// Console output is verbose-gated: when --verbose is set, messages are
// printed to stderr to help users follow the ask pipeline. Once Init has
// been called, every message at info level and above is also written as
// JSON to a rotated log file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the name of the rotated log file inside the log directory.
const LogFileName = "pagechat.log"

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	file    *lumberjack.Logger
	base    = build()
)

// Init enables the JSON file log in logDir. It is safe to call more than once;
// later calls replace the file sink.
func Init(logDir string) error {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, LogFileName),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	base = build()
	return nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// build assembles the zap logger from the current state. Callers hold mu.
func build() *zap.Logger {
	var cores []zapcore.Core

	if verbose {
		consoleCfg := zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			LineEnding:       zapcore.DefaultLineEnding,
			EncodeLevel:      bracketLevelEncoder,
			ConsoleSeparator: " ",
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(zapcore.AddSync(output)),
			zapcore.DebugLevel,
		))
	}

	if file != nil {
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "timestamp"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		level := zapcore.InfoLevel
		if verbose {
			level = zapcore.DebugLevel
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileCfg),
			zapcore.AddSync(file),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop()
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// With returns a logger carrying structured fields, for call sites that
// log repeatedly about one entity (a page, a chart container).
func With(fields ...zap.Field) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sync()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Sugar().Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Sugar().Infof(format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Sugar().Warnf(format, args...)
}

// Error prints an error message if verbose mode is enabled.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	base.Sugar().Errorf(format, args...)
}
