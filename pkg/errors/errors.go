package errors

import (
	"fmt"
)

// ParseError represents a failure to decode a structured document, either a
// suite definition (YAML) or a plan document (JSON), with optional line metadata.
type ParseError struct {
	Source  string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(source string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Source: source, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Source, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Source, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures suite configuration or generated-input validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RenderError represents a failure to serialize a generated configuration
// into module source text. Renders are pure, so any RenderError indicates a
// generator or renderer bug rather than an environment problem.
type RenderError struct {
	Kind    string
	Message string
	Err     error
}

// NewRenderError constructs a RenderError for the given module kind.
func NewRenderError(kind string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &RenderError{Kind: kind, Message: message, Err: err}
}

func (e *RenderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind != "" {
		return fmt.Sprintf("render error [%s]: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("render error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *RenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ExecutionError represents a failure while driving the external planning
// tool. Stage records which pipeline stage failed (init, plan or show) and
// Output carries the tool's diagnostic stream so "bad input" and
// "tool/environment problem" stay distinguishable for the caller.
type ExecutionError struct {
	Stage  string
	Output string
	Err    error
}

// NewExecutionError constructs an ExecutionError for a pipeline stage.
func NewExecutionError(stage, output string, err error) error {
	return &ExecutionError{Stage: stage, Output: output, Err: err}
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	if e.Output != "" {
		return fmt.Sprintf("execution error during %s: %v: %s", e.Stage, e.Err, e.Output)
	}
	return fmt.Sprintf("execution error during %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the root error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
