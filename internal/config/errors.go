package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed wraps every validation problem.
var ErrValidationFailed = errors.New("validation failed")

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// EnvError reports an environment variable that could not be parsed.
type EnvError struct {
	Name  string
	Value string
	Err   error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("environment %s=%q: %v", e.Name, e.Value, e.Err)
}

func (e *EnvError) Unwrap() error {
	return e.Err
}
