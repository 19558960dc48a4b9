// Package logger provides leveled logging for the CLI and HTTP server.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// callDepth makes file:line point at the caller of Info, Error or Debug.
const callDepth = 2

var (
	// InfoLogger handles informational messages.
	InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lmsgprefix)
	// ErrorLogger handles error messages.
	ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lmsgprefix)
	// DebugLogger handles debug messages; discarded unless the level is debug.
	DebugLogger = log.New(io.Discard, "", 0)
)

// Initialize configures the loggers. Level "debug" enables debug output and
// "error" silences info messages; development mode adds file:line.
func Initialize(level string, development bool) {
	InitializeWriters(level, development, os.Stdout, os.Stderr)
}

// InitializeWriters is Initialize with explicit destinations.
func InitializeWriters(level string, development bool, out, errOut io.Writer) {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	if development {
		flags |= log.Lshortfile
	}

	level = strings.ToLower(strings.TrimSpace(level))
	if level == "error" {
		InfoLogger = log.New(io.Discard, "", 0)
	} else {
		InfoLogger = log.New(out, "INFO: ", flags)
	}
	ErrorLogger = log.New(errOut, "ERROR: ", flags)

	if level == "debug" {
		DebugLogger = log.New(out, "DEBUG: ", flags)
	} else {
		DebugLogger = log.New(io.Discard, "", 0)
	}
}

// Info logs informational messages.
func Info(message string, args ...interface{}) {
	_ = InfoLogger.Output(callDepth, fmt.Sprintf(message, args...))
}

// Error logs error messages.
func Error(message string, args ...interface{}) {
	_ = ErrorLogger.Output(callDepth, fmt.Sprintf(message, args...))
}

// Debug logs debug messages.
func Debug(message string, args ...interface{}) {
	_ = DebugLogger.Output(callDepth, fmt.Sprintf(message, args...))
}

// Fatal logs fatal messages and terminates the program.
func Fatal(message string, args ...interface{}) {
	_ = ErrorLogger.Output(callDepth, fmt.Sprintf(message, args...))
	os.Exit(1)
}
