package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/terraprobe/internal/invariant"
)

type listOptions struct {
	jsonOutput bool
}

func newListCmd() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the invariants registered for each module kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	modules := []string{"service", "network"}

	if opts.jsonOutput {
		payload := make(map[string][]string, len(modules))
		for _, module := range modules {
			payload[module] = invariant.Names(module)
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "MODULE\tINVARIANT")
	for _, module := range modules {
		for _, name := range invariant.Names(module) {
			fmt.Fprintf(writer, "%s\t%s\n", module, name)
		}
	}
	return writer.Flush()
}
