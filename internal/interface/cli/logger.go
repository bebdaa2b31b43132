package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/YoshitsuguKoike/evolve/internal/infra/terminal"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var levelColors = map[LogLevel][]color.Attribute{
	LogLevelDebug: {color.FgCyan},
	LogLevelInfo:  {color.FgGreen},
	LogLevelWarn:  {color.FgYellow},
	LogLevelError: {color.FgRed, color.Bold},
}

var levelNames = map[LogLevel]string{
	LogLevelDebug: "DEBUG",
	LogLevelInfo:  "INFO",
	LogLevelWarn:  "WARN",
	LogLevelError: "ERROR",
}

// Logger provides centralized logging with level control
type Logger struct {
	mu       sync.RWMutex
	minLevel LogLevel
	output   io.Writer
	prefixes map[LogLevel]*color.Color
}

// NewLogger creates a new logger with the specified minimum level.
// Prefixes are colored only when output is a terminal and NO_COLOR is unset.
func NewLogger(minLevel LogLevel, output io.Writer) *Logger {
	l := &Logger{minLevel: minLevel, output: output}
	l.prefixes = buildPrefixes(colorFor(output))
	return l
}

func colorFor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(f)
}

// buildPrefixes gives the logger its own colors so the decision follows
// its writer, not stdout.
func buildPrefixes(enabled bool) map[LogLevel]*color.Color {
	prefixes := make(map[LogLevel]*color.Color, len(levelColors))
	for level, attrs := range levelColors {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		prefixes[level] = c
	}
	return prefixes
}

// SetColor forces colored prefixes on or off
func (l *Logger) SetColor(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefixes = buildPrefixes(enabled)
}

// SetLevel changes the minimum log level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// GetLevel returns the current minimum log level
func (l *Logger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.minLevel
}

// SetOutput changes the output writer
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
	l.prefixes = buildPrefixes(colorFor(output))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LogLevelDebug, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LogLevelInfo, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LogLevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LogLevelError, format, args...)
}

// log writes a log message if it meets the minimum level
func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	l.mu.RLock()
	minLevel := l.minLevel
	output := l.output
	prefixes := l.prefixes
	l.mu.RUnlock()

	if level < minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	prefix := prefixes[level].Sprint(levelNames[level])
	fmt.Fprintf(output, "%s: %s\n", prefix, strings.TrimRight(msg, "\r\n"))
}

// LogLevelFromString converts a string to LogLevel, defaulting to INFO
func LogLevelFromString(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(level string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stderr
	}
	globalLogger = NewLogger(LogLevelFromString(level), output)
	return globalLogger
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	if globalLogger == nil {
		InitGlobalLogger("info", os.Stderr)
	}
	return globalLogger
}

// Debug logs a debug message using the global logger
func Debug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// Info logs an info message using the global logger
func Info(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

// Warn logs a warning message using the global logger
func Warn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

// Error logs an error message using the global logger
func Error(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}
