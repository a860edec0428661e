package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckCommandForwardsOptions(t *testing.T) {
	orig := checkCmdRunner
	t.Cleanup(func() { checkCmdRunner = orig })

	var captured checkOptions
	checkCmdRunner = func(opts checkOptions) error {
		captured = opts
		return nil
	}

	root := newRootCmd()
	root.SetArgs([]string{"check", "suite.yaml", "--json", "--offline", "--verbose"})

	require.NoError(t, root.Execute())
	require.Equal(t, "suite.yaml", captured.SuitePath)
	require.True(t, captured.JSON)
	require.True(t, captured.Offline)
	require.True(t, captured.Verbose)
}

func TestCheckCommandRequiresSuiteArgument(t *testing.T) {
	orig := checkCmdRunner
	t.Cleanup(func() { checkCmdRunner = orig })

	called := false
	checkCmdRunner = func(checkOptions) error {
		called = true
		return nil
	}

	root := newRootCmd()
	root.SetArgs([]string{"check"})

	require.Error(t, root.Execute())
	require.False(t, called)
}
