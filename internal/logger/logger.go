// Package logger provides the console logger shared by the gateway, the use cases and the CLI.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger writes leveled, optionally coloured messages.
// Verbose messages are dropped unless verbose output was requested.
type Logger struct {
	verbose    bool
	colors     bool
	output     io.Writer
	errOutput  io.Writer
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	okColor    *color.Color
	mu         sync.Mutex
}

// New creates a logger writing progress to stderr.
func New(verbose, useColors bool) *Logger {
	if os.Getenv("NO_COLOR") != "" {
		useColors = false
	}
	return &Logger{
		verbose:    verbose,
		colors:     useColors && isTerminal(os.Stderr),
		output:     os.Stderr,
		errOutput:  os.Stderr,
		infoColor:  color.New(color.FgCyan),
		warnColor:  color.New(color.FgYellow, color.Bold),
		errorColor: color.New(color.FgRed, color.Bold),
		okColor:    color.New(color.FgGreen, color.Bold),
	}
}

// Discard returns a logger that writes nothing. Used by tests.
func Discard() *Logger {
	l := New(false, false)
	l.output = io.Discard
	l.errOutput = io.Discard
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && (fi.Mode()&os.ModeCharDevice) != 0
}

// Verbosef prints a progress message when verbose output is enabled.
func (l *Logger) Verbosef(format string, v ...any) {
	if !l.verbose {
		return
	}
	l.write(l.output, l.infoColor, "", format, v...)
}

// Warnf prints a warning.
func (l *Logger) Warnf(format string, v ...any) {
	l.write(l.errOutput, l.warnColor, "Warning: ", format, v...)
}

// Errorf prints an error.
func (l *Logger) Errorf(format string, v ...any) {
	l.write(l.errOutput, l.errorColor, "Error: ", format, v...)
}

// Successf prints a confirmation such as a saved output path.
func (l *Logger) Successf(format string, v ...any) {
	l.write(l.output, l.okColor, "", format, v...)
}

func (l *Logger) write(w io.Writer, c *color.Color, prefix, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := prefix + fmt.Sprintf(format, v...)
	if l.colors {
		_, _ = c.Fprintln(w, msg)
		return
	}
	_, _ = fmt.Fprintln(w, msg)
}
