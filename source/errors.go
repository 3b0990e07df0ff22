package source

import (
	"errors"
	"fmt"
)

// Error types for classifying load failures.

// ReadError represents a file that could not be read.
type ReadError struct {
	Path string
	err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.err)
}

func (e *ReadError) Unwrap() error {
	return e.err
}

// NewReadError wraps an I/O failure for the given path.
func NewReadError(path string, err error) error {
	return &ReadError{Path: path, err: err}
}

// ParseError represents text that could not be decomposed into
// recognizable logical units.
type ParseError struct {
	Path string
	err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.err)
}

func (e *ParseError) Unwrap() error {
	return e.err
}

// NewParseError wraps a syntax failure for the given path.
func NewParseError(path string, err error) error {
	return &ParseError{Path: path, err: err}
}

// IsReadError returns true if the error is a read failure.
func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

// IsParseError returns true if the error is a parse failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
