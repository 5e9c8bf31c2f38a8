package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"topowatch/internal/adapter"
	"topowatch/internal/codec"
	"topowatch/internal/logging"
	"topowatch/internal/service"
)

// reconcileCommand applies snapshot files to an empty graph in order and
// prints the final publication
func (c *CLI) reconcileCommand() *cobra.Command {
	var (
		format     string
		densityMax int
	)

	cmd := &cobra.Command{
		Use:   "reconcile <snapshot>...",
		Short: "Apply snapshot files in order and print the resulting graph",
		Long: `Reconcile reads each JSON or YAML snapshot file in turn, merges it into
one in-memory graph exactly as the server would on successive polls, and
prints the final graph with its collapsed shortcuts.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := codec.Lookup(format)
			if err != nil {
				return err
			}
			if densityMax <= 0 {
				densityMax = c.cfg.View.DensityMax
			}

			logger := logging.FromContext(cmd.Context())
			svc := service.NewTopologyService(service.Options{Logger: logger, DensityMax: densityMax})

			for _, path := range args {
				src := adapter.NewFileSource(path, false, logger)
				if _, err := svc.RunCycle(cmd.Context(), src); err != nil {
					return fmt.Errorf("reconcile %s: %w", path, err)
				}
			}

			mode, visible := svc.Mode(0, nil)
			pub := svc.Current()
			logger.Info("reconciled snapshots",
				"files", len(args), "nodes", len(pub.Nodes), "edges", len(pub.Edges),
				"shortcuts", len(pub.Shortcuts), "visible", visible, "mode", mode)

			return out.Export(pub, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json, yaml)")
	cmd.Flags().IntVar(&densityMax, "density-max", 0, "view threshold (overrides config)")

	return cmd
}
