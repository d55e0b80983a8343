package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cipmsg",
		Short: "Send generic CIP explicit messages over EtherNet/IP",
		Long: `cipmsg builds and sends one class/instance/attribute addressed CIP request,
either over a Forward Open connection or unconnected through the UCMM with an
optional route and Unconnected Send wrapper.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newRouteCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMetricsCmd())
	rootCmd.AddCommand(newPcapCmd())

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != cmd.Root() {
			fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Usage:\n  %s <command> [arguments] [options]\n\n", cmd.Name())
		fmt.Fprintf(cmd.OutOrStdout(), "Available Commands:\n")
		for _, subCmd := range cmd.Commands() {
			if !subCmd.Hidden {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-15s %s\n", subCmd.Name(), subCmd.Short)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nUse \"%s help <command>\" for more information about a command.\n", cmd.Name())
	})
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
