package app

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger interface for app layer
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// defaultLogger writes to stderr without level control until the CLI
// installs its own logger
type defaultLogger struct {
	output io.Writer
}

func (l *defaultLogger) Debug(format string, args ...interface{}) {
	l.write("DEBUG", format, args...)
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.write("INFO", format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.write("WARN", format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.write("ERROR", format, args...)
}

func (l *defaultLogger) write(prefix, format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\r\n")
	fmt.Fprintf(l.output, "%s: %s\n", prefix, msg)
}

// NewWriterLogger returns an unfiltered logger writing to w
func NewWriterLogger(w io.Writer) Logger {
	return &defaultLogger{output: w}
}

// NopLogger discards everything
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// globalLogger is the logger instance used by app layer
var globalLogger Logger = &defaultLogger{output: os.Stderr}

// SetLogger sets the global logger for app layer
func SetLogger(logger Logger) {
	if logger != nil {
		globalLogger = logger
	}
}

// GetLogger returns the current logger
func GetLogger() Logger {
	return globalLogger
}
