package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/cipmsg/internal/app"
)

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics <file.csv>",
		Short: "Summarize a metrics CSV written by send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunMetricsSummary(cmd.OutOrStdout(), args[0])
		},
	}
}
