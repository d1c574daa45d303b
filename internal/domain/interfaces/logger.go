// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs warning messages
	Warn(msg string, fields ...Field)

	// Error logs error messages
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F creates a new Field (convenience function)
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// ConsoleLogger writes leveled, colored output to stderr. Build output stays
// on stderr so the packaged artifact path on stdout remains scriptable.
type ConsoleLogger struct {
	// Verbose enables Debug output.
	Verbose bool
}

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

// Debug logs debug-level messages when verbose mode is on
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	if !c.Verbose {
		return
	}
	c.log(debugColor, "DEBUG", msg, fields)
}

// Info logs informational messages
func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.log(infoColor, "INFO", msg, fields)
}

// Warn logs warning messages
func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.log(warnColor, "WARN", msg, fields)
}

// Error logs error messages
func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.log(errorColor, "ERROR", msg, fields)
}

func (c *ConsoleLogger) log(lvl *color.Color, level, msg string, fields []Field) {
	fmt.Fprintf(os.Stderr, "%s %s", lvl.Sprint(level), msg)
	for _, f := range fields {
		fmt.Fprintf(os.Stderr, " %s=%v", f.Key, f.Value)
	}
	fmt.Fprintln(os.Stderr)
}
