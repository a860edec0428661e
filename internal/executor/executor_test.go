package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

const stubPlanJSON = `{
  "format_version": "1.2",
  "planned_values": {
    "root_module": {
      "child_modules": [
        {
          "address": "module.service_under_test",
          "resources": [
            {
              "address": "module.service_under_test.aws_ecs_service.this",
              "type": "aws_ecs_service",
              "name": "this",
              "values": {"name": "stub", "desired_count": 1}
            }
          ]
        }
      ]
    }
  }
}`

// writeStub installs a fake terraform binary whose init/plan/show behaviour
// is driven by the supplied script body.
func writeStub(t *testing.T, script string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "terraform")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o700))
	return path
}

func happyStub(t *testing.T) string {
	t.Helper()

	return writeStub(t, `case "$1" in
init) exit 0 ;;
plan) touch tfplan; exit 0 ;;
show) cat <<'EOF'
`+stubPlanJSON+`
EOF
exit 0 ;;
*) echo "unexpected subcommand $1" >&2; exit 1 ;;
esac
`)
}

func TestExecutePlanHappyPath(t *testing.T) {
	runner := NewRunner(Options{TerraformPath: happyStub(t), StageTimeout: 30 * time.Second})

	doc, err := runner.ExecutePlan(context.Background(), []byte(`module "service_under_test" {}`))
	require.NoError(t, err)
	require.Equal(t, 1, doc.Len())

	services := doc.ResourcesOfType("aws_ecs_service")
	require.Len(t, services, 1)
	name, ok := services[0].Attribute("name").AsString()
	require.True(t, ok)
	require.Equal(t, "stub", name)
}

func TestExecutePlanRemovesWorkdirOnAllPaths(t *testing.T) {
	// Workdirs are created under an isolated temp root so the counts below
	// cannot be disturbed by concurrent runs.
	t.Setenv("TMPDIR", t.TempDir())

	countWorkdirs := func() int {
		matches, err := filepath.Glob(filepath.Join(os.TempDir(), "terraprobe-*"))
		require.NoError(t, err)
		return len(matches)
	}

	before := countWorkdirs()

	runner := NewRunner(Options{TerraformPath: happyStub(t)})
	_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
	require.NoError(t, err)
	require.Equal(t, before, countWorkdirs())

	failing := NewRunner(Options{TerraformPath: writeStub(t, `echo "Error: no" >&2; exit 1`)})
	_, err = failing.ExecutePlan(context.Background(), []byte("{}"))
	require.Error(t, err)
	require.Equal(t, before, countWorkdirs())
}

func TestExecutePlanStageFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		script    string
		wantStage string
		wantInMsg string
	}{
		{
			name:      "init failure",
			script:    `[ "$1" = init ] && { echo "Error: registry unreachable" >&2; exit 1; }; exit 0`,
			wantStage: StageInit,
			wantInMsg: "registry unreachable",
		},
		{
			name: "plan failure carries provider diagnostics",
			script: `case "$1" in
init) exit 0 ;;
plan) echo "Error: expected desired_count to be at least (1)" >&2; exit 1 ;;
esac`,
			wantStage: StagePlan,
			wantInMsg: "desired_count",
		},
		{
			name: "show failure",
			script: `case "$1" in
init|plan) exit 0 ;;
show) echo "Error: stat tfplan: no such file" >&2; exit 1 ;;
esac`,
			wantStage: StageShow,
			wantInMsg: "tfplan",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			runner := NewRunner(Options{TerraformPath: writeStub(t, tc.script)})
			_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
			require.Error(t, err)

			var execErr *proberrors.ExecutionError
			require.ErrorAs(t, err, &execErr)
			require.Equal(t, tc.wantStage, execErr.Stage)
			require.Contains(t, execErr.Output, tc.wantInMsg)
		})
	}
}

func TestExecutePlanMalformedOutputIsParseError(t *testing.T) {
	t.Parallel()

	runner := NewRunner(Options{TerraformPath: writeStub(t, `case "$1" in
init|plan) exit 0 ;;
show) echo "not json"; exit 0 ;;
esac`)})

	_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
	require.Error(t, err)

	var parseErr *proberrors.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestExecutePlanTimeout(t *testing.T) {
	t.Parallel()

	runner := NewRunner(Options{
		TerraformPath: writeStub(t, `sleep 5`),
		StageTimeout:  100 * time.Millisecond,
	})

	start := time.Now()
	_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
	require.Error(t, err)
	require.Less(t, time.Since(start), 3*time.Second)

	var execErr *proberrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, StageInit, execErr.Stage)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutePlanTimeoutWithLingeringChild(t *testing.T) {
	t.Parallel()

	// The stub backgrounds a child that inherits the output pipes, the way a
	// hung provider plugin would. The stage must still end near its deadline
	// even though the grandchild outlives the killed shell.
	runner := NewRunner(Options{
		TerraformPath: writeStub(t, "sleep 5 &\nsleep 5"),
		StageTimeout:  100 * time.Millisecond,
	})

	start := time.Now()
	_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
	require.Error(t, err)
	require.Less(t, time.Since(start), 3*time.Second)

	var execErr *proberrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, StageInit, execErr.Stage)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutePlanMissingBinary(t *testing.T) {
	t.Parallel()

	runner := NewRunner(Options{TerraformPath: filepath.Join(t.TempDir(), "nope")})
	_, err := runner.ExecutePlan(context.Background(), []byte("{}"))
	require.Error(t, err)

	var execErr *proberrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, StageInit, execErr.Stage)
}
