// Package engine defines the script engine the loader hands units to, and
// provides a JavaScript implementation backed by goja.
package engine

import (
	"context"
	"fmt"
)

// Engine runs units of script text. Implementations keep global state
// between calls so later units see earlier definitions.
type Engine interface {
	// Name returns a human-readable name for this engine (e.g., "goja").
	Name() string

	// Execute runs one complete statement or script. Script-level failures
	// are returned as *ScriptError.
	Execute(ctx context.Context, unit string) error

	// Evaluate runs an expression and returns its value as text.
	Evaluate(ctx context.Context, expr string) (string, error)
}

// ScriptError is a parse or runtime failure raised by the engine.
type ScriptError struct {
	// Kind is "syntax", "runtime" or "interrupted".
	Kind    string
	Message string
	Err     error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *ScriptError) Unwrap() error { return e.Err }
