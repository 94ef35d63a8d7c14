/*
Copyright © 2025 The convoy authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

// Package logging provides the pipeline's diagnostic channel. All narration
// (info, warnings, errors) is written to stderr; stdout is reserved for stage
// data and is only ever touched through Output/Print. This split is a hard
// contract: CI consumers parse stdout and must never see log text there.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

// OutputType represents the output format for logs.
type OutputType int

// Output types for different log formats.
const (
	PlainOutput OutputType = iota
	ColorOutput
	JSONOutput
)

// Log levels, ordered from least to most severe for numeric comparison.
const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes leveled diagnostics to a side channel and stage data to stdout.
type Logger struct {
	mu         sync.Mutex
	LogLevel   slog.Level
	OutputType OutputType
	Quiet      bool
	Verbose    bool
	// Diagnostics writer. Defaults to stderr and must stay there in
	// production; tests swap in a buffer.
	Console io.Writer
	// Data writer, the stage's primary output channel. Defaults to stdout.
	Data io.Writer
}

// New creates a Logger with the given level, writing diagnostics to stderr.
func New(level slog.Level) *Logger {
	return &Logger{
		LogLevel:   level,
		OutputType: PlainOutput,
		Console:    os.Stderr,
		Data:       os.Stdout,
	}
}

// NewWithOptions creates a Logger from string-typed CLI options.
func NewWithOptions(levelStr, format string, quiet, verbose bool) *Logger {
	level := DetermineLogLevel(levelStr)

	outputType := PlainOutput
	switch format {
	case "json":
		outputType = JSONOutput
	case "color":
		outputType = ColorOutput
	case "text", "plain":
		outputType = PlainOutput
	}

	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	return &Logger{
		LogLevel:   level,
		OutputType: outputType,
		Quiet:      quiet,
		Verbose:    verbose,
		Console:    os.Stderr,
		Data:       os.Stdout,
	}
}

// formatMessage applies the level prefix. For ColorOutput the prefix is
// colored; otherwise the message gets a plain prefix so grep-ing CI logs
// stays predictable.
func (l *Logger) formatMessage(level LogLevel, message string, args ...interface{}) string {
	formatted := fmt.Sprintf(message, args...)

	if l.OutputType != ColorOutput {
		return fmt.Sprintf("[%s] %s", level, formatted)
	}

	switch level {
	case DebugLevel:
		return color.HiBlackString("[DEBUG] %s", formatted)
	case InfoLevel:
		return color.HiGreenString("[INFO] %s", formatted)
	case WarnLevel:
		return color.HiYellowString("[WARN] %s", formatted)
	case ErrorLevel:
		return color.HiRedString("[ERROR] %s", formatted)
	default:
		return formatted
	}
}

// slogLevel maps the console level onto slog's numeric scale so it can be
// compared against the configured threshold.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// shouldShowLocked decides console visibility. Callers must hold l.mu.
// Quiet mode shows only errors; verbose shows everything; otherwise the
// configured level is the threshold.
func (l *Logger) shouldShowLocked(level LogLevel) bool {
	if l.Quiet {
		return level == ErrorLevel
	}
	if l.Verbose {
		return true
	}
	return level.slogLevel() >= l.LogLevel
}

func (l *Logger) log(level LogLevel, message string, args ...interface{}) {
	formatted := l.formatMessage(level, message, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.shouldShowLocked(level) {
		return
	}

	writer := l.Console
	if writer == nil {
		writer = os.Stderr
	}
	fmt.Fprintln(writer, formatted)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WarnLevel, format, args...)
}

// Error logs an error message. It accepts either an error, a format string,
// or any other value as the first argument.
func (l *Logger) Error(firstArg interface{}, args ...interface{}) {
	switch v := firstArg.(type) {
	case error:
		if len(args) == 0 {
			l.log(ErrorLevel, "%s", v.Error())
		} else {
			l.log(ErrorLevel, v.Error(), args...)
		}
	case string:
		l.log(ErrorLevel, v, args...)
	default:
		l.log(ErrorLevel, "%v", v)
	}
}

// Output serializes data as JSON on the primary output channel. This is the
// only sanctioned way for a stage to emit a structured result.
func (l *Logger) Output(data interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	writer := l.Data
	if writer == nil {
		writer = os.Stdout
	}

	if err := json.NewEncoder(writer).Encode(data); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// Print writes a raw line on the primary output channel, for stages whose
// contract is a bare string rather than JSON.
func (l *Logger) Print(data string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	writer := l.Data
	if writer == nil {
		writer = os.Stdout
	}
	fmt.Fprintln(writer, data)
}

// DetermineLogLevel converts a string to slog.Level.
func DetermineLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loggerKeyType is the type for the logger context key.
type loggerKeyType struct{}

var loggerKey = loggerKeyType{}

// WithLogger returns a new context carrying the provided logger.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from the context, or a default logger if
// none is stored.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
			return l
		}
	}
	return New(slog.LevelInfo)
}

// InfoContext logs an informational message using the logger from context.
func InfoContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Info(message, args...)
}

// WarnContext logs a warning message using the logger from context.
func WarnContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Warn(message, args...)
}

// DebugContext logs a debug message using the logger from context.
func DebugContext(ctx context.Context, message string, args ...interface{}) {
	FromContext(ctx).Debug(message, args...)
}

// ErrorContext logs an error message using the logger from context.
func ErrorContext(ctx context.Context, firstArg interface{}, args ...interface{}) {
	FromContext(ctx).Error(firstArg, args...)
}

// OutputContext emits stage data using the logger from context.
func OutputContext(ctx context.Context, data interface{}) error {
	return FromContext(ctx).Output(data)
}

// PrintContext writes a raw data line using the logger from context.
func PrintContext(ctx context.Context, data string) {
	FromContext(ctx).Print(data)
}
