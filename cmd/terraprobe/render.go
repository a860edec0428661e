package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/terraprobe/internal/genconfig"
	"github.com/alexisbeaulieu97/terraprobe/internal/render"
)

type renderOptions struct {
	Kind string
	Seed int64
}

// newRenderCmd is a debugging aid: it shows exactly which configuration a
// seed draws and what Terraform source it renders to, without planning it.
func newRenderCmd() *cobra.Command {
	opts := renderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the Terraform source a given seed renders to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng := rand.New(rand.NewSource(opts.Seed))

			var source []byte
			var err error
			switch opts.Kind {
			case "service":
				source, err = render.Service(genconfig.DrawService(rng))
			case "network":
				source, err = render.Network(genconfig.DrawNetwork(rng))
			default:
				return fmt.Errorf("unknown module kind %q (want service or network)", opts.Kind)
			}
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), string(source))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "service", "Module kind to render (service or network)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Seed for the configuration draw")

	return cmd
}
