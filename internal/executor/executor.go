// Package executor drives the Terraform CLI through an
// initialize -> plan -> serialize pipeline inside a throwaway working
// directory, producing a parsed plan document per run.
package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/terraprobe/internal/logger"
	"github.com/alexisbeaulieu97/terraprobe/internal/plandoc"
	proberrors "github.com/alexisbeaulieu97/terraprobe/pkg/errors"
)

// Pipeline stages reported inside ExecutionError so callers can tell bad
// input apart from tool or environment failures.
const (
	StageInit = "init"
	StagePlan = "plan"
	StageShow = "show"
)

const defaultStageTimeout = 2 * time.Minute

// Options configures a Runner.
type Options struct {
	// TerraformPath is the binary to invoke; defaults to "terraform" on PATH.
	TerraformPath string
	// StageTimeout bounds each individual CLI invocation.
	StageTimeout time.Duration
	Logger       *logger.Logger
}

// Runner executes plans. A Runner is safe for concurrent use: every call
// operates on its own ephemeral working directory and shares nothing else.
type Runner struct {
	binary  string
	timeout time.Duration
	log     *logger.Logger
}

// NewRunner creates a Runner from Options, applying defaults.
func NewRunner(opts Options) *Runner {
	binary := opts.TerraformPath
	if binary == "" {
		binary = "terraform"
	}
	timeout := opts.StageTimeout
	if timeout <= 0 {
		timeout = defaultStageTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Runner{binary: binary, timeout: timeout, log: log}
}

// ExecutePlan writes the rendered source into a fresh working directory,
// runs init, plan and show -json, and parses the result. The directory and
// every artifact inside it (state, lock files, the plan file) are removed on
// all exit paths.
func (r *Runner) ExecutePlan(ctx context.Context, source []byte) (*plandoc.Document, error) {
	workdir, err := os.MkdirTemp("", "terraprobe-*")
	if err != nil {
		return nil, proberrors.NewExecutionError(StageInit, "", err)
	}
	defer os.RemoveAll(workdir)

	if err := os.WriteFile(filepath.Join(workdir, "main.tf"), source, 0o600); err != nil {
		return nil, proberrors.NewExecutionError(StageInit, "", err)
	}

	log := r.log.WithFields(map[string]any{"workdir": workdir})
	log.Debug("working directory prepared")

	if _, err := r.runStage(ctx, workdir, StageInit, "init", "-backend=false", "-input=false", "-no-color"); err != nil {
		return nil, err
	}

	if _, err := r.runStage(ctx, workdir, StagePlan, "plan", "-out=tfplan", "-input=false", "-no-color"); err != nil {
		return nil, err
	}

	stdout, err := r.runStage(ctx, workdir, StageShow, "show", "-json", "tfplan")
	if err != nil {
		return nil, err
	}

	doc, err := plandoc.Parse(stdout)
	if err != nil {
		return nil, err
	}

	log.WithFields(map[string]any{"resources": doc.Len()}).Debug("plan parsed")
	return doc, nil
}

// runStage invokes one CLI command with a bounded timeout and returns its
// stdout. Failures carry the stage name and the tool's stderr so diagnostics
// are never swallowed.
func (r *Runner) runStage(ctx context.Context, workdir, stage string, args ...string) ([]byte, error) {
	stageCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(stageCtx, r.binary, args...)
	cmd.Dir = workdir
	cmd.Env = append(os.Environ(), "TF_INPUT=0", "TF_IN_AUTOMATION=1")
	// Provider plugins inherit the output pipes. Killing the direct child on
	// deadline is not enough: Wait would still block until every inheritor
	// closes its end, so bound that wait too.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	r.log.WithFields(map[string]any{
		"stage":    stage,
		"duration": elapsed.String(),
	}).Debug("stage finished")

	if err != nil {
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
		}
		return nil, proberrors.NewExecutionError(stage, strings.TrimSpace(stderr.String()), err)
	}

	return stdout.Bytes(), nil
}
