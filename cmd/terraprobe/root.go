package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "terraprobe",
		Short: "Terraprobe checks infrastructure module invariants over generated plans",
		Long: `Terraprobe generates randomized module configurations, renders them to
Terraform source, plans them and checks the resulting plan documents against
named invariants. It never applies anything: every run is plan-only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}
