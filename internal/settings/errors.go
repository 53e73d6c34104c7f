package settings

import (
	"errors"
	"fmt"
)

// Errors returned by settings operations.
var (
	// ErrUnknownPlugin indicates an unrecognized template plugin name.
	ErrUnknownPlugin = errors.New("unknown template plugin")

	// ErrWatcherClosed indicates the watcher has already been closed.
	ErrWatcherClosed = errors.New("settings watcher closed")
)

// ParseError represents a failure to decode a settings file.
type ParseError struct {
	// Path is the vault path of the file.
	Path string
	// Line and Column locate the error when the decoder reports it.
	Line   int
	Column int
	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %v", e.Path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
