package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/cipmsg/internal/app"
)

func newRouteCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "route <route>",
		Short: "Show how a route is encoded",
		Example: `  cipmsg route 1/0
  cipmsg route backplane/2/enet/10.0.0.9 --mode packed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if helpRequested(cmd, args) {
				return nil
			}
			return app.RunRoute(cmd.OutOrStdout(), args[0], mode)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "padded", "Segment encoding: padded or packed")
	return cmd
}
