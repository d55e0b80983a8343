package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/cipmsg/internal/app"
	"github.com/tturner/cipmsg/internal/enip"
)

func newPcapCmd() *cobra.Command {
	var port uint16
	cmd := &cobra.Command{
		Use:   "pcap <file.pcap>",
		Short: "List the EtherNet/IP frames in a capture written by send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunCaptureDump(cmd.OutOrStdout(), args[0], port)
		},
	}
	cmd.Flags().Uint16Var(&port, "port", enip.DefaultPort, "Target TCP port in the capture")
	return cmd
}
