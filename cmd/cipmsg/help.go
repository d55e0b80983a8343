package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tturner/cipmsg/internal/app"
)

// helpRequested prints help for "cipmsg <cmd> help" and "cipmsg <cmd> ?".
func helpRequested(cmd *cobra.Command, args []string) bool {
	if len(args) == 0 {
		return false
	}
	if !strings.EqualFold(args[0], "help") && args[0] != "?" {
		return false
	}
	_ = cmd.Help()
	return true
}

// requireTarget rejects a send that has no device to talk to.
func requireTarget(cmd *cobra.Command, opts app.SendOptions) error {
	if opts.IP != "" || opts.ConfigPath != "" || opts.DryRun {
		return nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	return fmt.Errorf("no target: set --ip, load one with --config, or use --dry-run")
}
