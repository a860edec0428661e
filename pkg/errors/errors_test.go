package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("unexpected token")
	err := NewParseError("suite.yaml", 12, cause)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "suite.yaml", parseErr.Source)
	require.Equal(t, 12, parseErr.Line)
	require.Contains(t, err.Error(), "suite.yaml:12")
	require.ErrorIs(t, err, cause)
}

func TestParseErrorWithoutLine(t *testing.T) {
	t.Parallel()

	err := NewParseError("plan.json", 0, fmt.Errorf("invalid character"))
	require.NotContains(t, err.Error(), ":0:")
	require.Contains(t, err.Error(), "plan.json")
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := NewValidationError("properties[0].trials", "must be at least 1", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, err.Error(), "properties[0].trials")
	require.Contains(t, err.Error(), "must be at least 1")
}

func TestRenderError(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("target group arn missing")
	err := NewRenderError("service", cause)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	require.Equal(t, "service", renderErr.Kind)
	require.Contains(t, err.Error(), "[service]")
	require.ErrorIs(t, err, cause)
}

func TestExecutionError(t *testing.T) {
	t.Parallel()

	cause := errors.New("exit status 1")
	err := NewExecutionError("plan", "Error: Unsupported argument", cause)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, "plan", execErr.Stage)
	require.Contains(t, err.Error(), "during plan")
	require.Contains(t, err.Error(), "Unsupported argument")
	require.ErrorIs(t, err, cause)
}

func TestExecutionErrorWithoutOutput(t *testing.T) {
	t.Parallel()

	err := NewExecutionError("init", "", errors.New("context deadline exceeded"))
	require.Contains(t, err.Error(), "during init")
	require.Contains(t, err.Error(), "deadline")
}
