package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/terraprobe/internal/executor"
	"github.com/alexisbeaulieu97/terraprobe/internal/harness"
	"github.com/alexisbeaulieu97/terraprobe/internal/logger"
	"github.com/alexisbeaulieu97/terraprobe/internal/planstub"
	"github.com/alexisbeaulieu97/terraprobe/internal/suite"
)

type checkOptions struct {
	SuitePath string
	Verbose   bool
	JSON      bool
	Offline   bool
}

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <suite-file>",
		Short: "Run a property suite against the infrastructure modules",
		Long: `Check runs every property in the suite: each one repeatedly generates a
random module configuration, plans it and verifies the plan against the
property's invariants. Exit code 0 means every property passed, 1 means an
invariant was violated, 2 means the suite file is invalid, 3 means the
pipeline itself failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.SuitePath = args[0]
			opts.Verbose = root.verbose

			return checkCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output results in JSON format")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Synthesize plans in-process instead of invoking Terraform")

	return cmd
}

func runCheck(opts checkOptions) error {
	s, err := suite.Parse(opts.SuitePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing suite: %v\n", err)
		os.Exit(2)
	}

	level := "info"
	if opts.Verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{
		Level:         level,
		HumanReadable: !opts.JSON && term.IsTerminal(int(os.Stderr.Fd())),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(3)
	}

	var planner harness.Planner
	if opts.Offline {
		planner = planstub.New()
	} else {
		planner = executor.NewRunner(executor.Options{
			TerraformPath: s.Terraform.Binary,
			StageTimeout:  s.Terraform.StageTimeout(),
			Logger:        log,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(map[string]any{
		"suite":      opts.SuitePath,
		"properties": len(s.Properties),
		"parallel":   s.Terraform.Parallel,
		"offline":    opts.Offline,
	}).Info("Starting property run")

	results := harness.NewRunner(planner, log).RunSuite(ctx, s)
	summary := harness.Summarize(results)

	log.WithFields(map[string]any{
		"total":    summary.Total,
		"passed":   summary.Passed,
		"violated": summary.Violated,
		"errored":  summary.Errored,
	}).Info("Property run complete")

	if opts.JSON {
		if err := harness.WriteJSON(os.Stdout, summary, opts.SuitePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			os.Exit(3)
		}
	} else {
		harness.WriteText(os.Stdout, summary)
	}

	os.Exit(summary.ExitCode())
	return nil
}
