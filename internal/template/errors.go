package template

import (
	"errors"
	"fmt"
)

// Errors returned by template operations.
var (
	// ErrEditorNotReady indicates no ready markdown editor appeared within
	// the retry budget.
	ErrEditorNotReady = errors.New("no active editor or editor not ready")

	// ErrNoActiveEditor indicates an insertion was attempted with no
	// active editor.
	ErrNoActiveEditor = errors.New("no active editor")

	// ErrPluginDisabled indicates the selected integration cannot insert.
	ErrPluginDisabled = errors.New("template plugin disabled")
)

// InsertError describes a failed template insertion.
type InsertError struct {
	// Op is the stage that failed: "wait", "read", "expand" or "insert".
	Op string
	// Path is the vault path of the template file.
	Path string
	// Attempts is the number of readiness checks made, for "wait" failures.
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *InsertError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("template %s %s after %d attempts: %v", e.Op, e.Path, e.Attempts, e.Err)
	}
	return fmt.Sprintf("template %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *InsertError) Unwrap() error {
	return e.Err
}
