package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryInternal Category = "internal"
	CategoryInput    Category = "input"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// contextLines is the number of source lines kept around a location.
const contextLines = 5

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// VmError is a structured error with a code, optional source location and a
// fix suggestion.
type VmError struct {
	// Code is a unique error identifier (e.g., "R003").
	Code string

	// Category is the error type (runtime, internal, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the source location the error refers to, if any.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *VmError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *VmError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a VmError with the same code.
func (e *VmError) Is(target error) bool {
	t, ok := target.(*VmError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithLocation adds source location to the error.
func (e *VmError) WithLocation(file string, line, column int) *VmError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextLines)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *VmError) WithSuggestion(s string) *VmError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *VmError) WithDetail(d string) *VmError {
	e.Detail = d
	return e
}

// WithDetailf is WithDetail with a format string.
func (e *VmError) WithDetailf(format string, args ...any) *VmError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// Wrap wraps another error.
func (e *VmError) Wrap(err error) *VmError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a VmError from a registered error code.
func New(code string) *VmError {
	template, ok := registry[code]
	if !ok {
		return &VmError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &VmError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new VmError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *VmError {
	return &VmError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a VmError.
func FromError(err error, code string) *VmError {
	if err == nil {
		return nil
	}
	if ve, ok := err.(*VmError); ok {
		return ve
	}
	return New(code).Wrap(err)
}
