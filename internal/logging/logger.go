// Package logging provides the colored, printf-style logger used across the
// server. Output goes to stderr by default so that the stdio MCP transport
// owns stdout.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Logger handles formatted output for the server
type Logger struct {
	verbose     bool
	useColor    bool
	jsonRPCMode bool
	writer      io.Writer
	mu          sync.Mutex
}

// NewLogger creates a new logger writing to stderr
func NewLogger(verbose, useColor, jsonRPCMode bool) *Logger {
	return NewLoggerWithWriter(verbose, useColor, jsonRPCMode, os.Stderr)
}

// NewLoggerWithWriter creates a new logger with a custom writer
func NewLoggerWithWriter(verbose, useColor, jsonRPCMode bool, writer io.Writer) *Logger {
	return &Logger{
		verbose:     verbose,
		useColor:    useColor,
		jsonRPCMode: jsonRPCMode,
		writer:      writer,
	}
}

// SetWriter changes the output writer
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// SetVerbose toggles verbose output
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// Verbose reports whether verbose output is enabled
func (l *Logger) Verbose() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verbose
}

func (l *Logger) write(attr color.Attribute, prefix, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05")

	if l.useColor {
		c := color.New(attr)
		c.EnableColor()
		fmt.Fprintf(l.writer, "[%s] %s %s\n", timestamp, c.Sprint(prefix), msg)
		return
	}
	fmt.Fprintf(l.writer, "[%s] %s %s\n", timestamp, prefix, msg)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(color.FgCyan, "INFO", format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.write(color.FgGreen, "OK  ", format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.write(color.FgYellow, "WARN", format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(color.FgRed, "ERR ", format, args...)
}

// Debug logs a message only when verbose output is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.write(color.FgHiBlack, "DBG ", format, args...)
}

// InfoVerbose logs an informational message only in verbose mode
func (l *Logger) InfoVerbose(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.Info(format, args...)
}

// WarningVerbose logs a warning only in verbose mode
func (l *Logger) WarningVerbose(format string, args ...interface{}) {
	if !l.Verbose() {
		return
	}
	l.Warning(format, args...)
}

// Request logs an outgoing request. Payloads are only printed in JSON-RPC mode.
func (l *Logger) Request(method string, params interface{}) {
	if l == nil {
		return
	}
	if l.jsonRPCMode {
		l.write(color.FgMagenta, "→   ", "%s %s", method, prettyJSON(params))
		return
	}
	l.Debug("→ %s", method)
}

// Response logs an incoming response. Payloads are only printed in JSON-RPC mode.
func (l *Logger) Response(method string, result interface{}) {
	if l == nil {
		return
	}
	if l.jsonRPCMode {
		l.write(color.FgBlue, "←   ", "%s %s", method, prettyJSON(result))
		return
	}
	l.Debug("← %s", method)
}

// prettyJSON pretty-prints JSON for logging
func prettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
