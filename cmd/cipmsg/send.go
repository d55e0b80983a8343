package main

import (
	"github.com/spf13/cobra"

	"github.com/tturner/cipmsg/internal/app"
)

func newSendCmd() *cobra.Command {
	opts := app.SendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one generic CIP request",
		Long: `Send one generic CIP service request and print the normalized result.
Requests are connected (Forward Open) unless --unconnected is given.
Address flags accept numbers (decimal or 0x hex), hex:<bytes>, sym:<name>,
and aliases for service and class (get_attribute_single, identity).`,
		Example: `  # Identity vendor ID over a connection
  cipmsg send --ip 10.0.0.50 --service get_attribute_single --class identity --instance 1 --attribute 1 --type UINT

  # Unconnected, routed to the controller in slot 2
  cipmsg send --ip 10.0.0.50 --service 0x01 --class 0x01 --instance 1 --unconnected-send --route 1/2

  # Named message from a config file, printed but not sent
  cipmsg send --config cipmsg.yaml --message product_name --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if helpRequested(cmd, args) {
				return nil
			}
			if err := requireTarget(cmd, opts); err != nil {
				return err
			}
			opts.Out = cmd.OutOrStdout()
			return app.RunSend(opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigPath, "config", "", "YAML config file (see 'cipmsg config init')")
	f.StringVar(&opts.Message, "message", "", "Named message from the config file")
	f.StringVar(&opts.IP, "ip", "", "Target device IP address")
	f.IntVar(&opts.Port, "port", 0, "EtherNet/IP TCP port (default 44818)")
	f.IntVar(&opts.TimeoutMs, "timeout-ms", 0, "Per-request timeout in milliseconds (default 5000)")
	f.StringVar(&opts.TargetRoute, "target-route", "", "Default route to the processor (default 1/0)")

	f.StringVar(&opts.Service, "service", "", "Service code or alias")
	f.StringVar(&opts.Class, "class", "", "Class ID or alias")
	f.StringVar(&opts.Instance, "instance", "", "Instance ID")
	f.StringVar(&opts.Attribute, "attribute", "", "Attribute ID (optional)")
	f.StringVar(&opts.PayloadHex, "payload", "", "Request data as hex")
	f.StringVar(&opts.DataType, "type", "", "Decode the reply as this data type (UINT, DINT, REAL, SHORT_STRING, ...)")
	f.BoolVar(&opts.Unconnected, "unconnected", false, "Send through the UCMM instead of a connection")
	f.BoolVar(&opts.UnconnectedSend, "unconnected-send", false, "Wrap in an Unconnected Send to the Connection Manager (implies --unconnected)")
	f.StringVar(&opts.Route, "route", "", "Route for unconnected requests: port/link pairs, true (default route) or false (none)")
	f.StringVar(&opts.RouteHex, "route-hex", "", "Pre-encoded route path as hex")
	f.BoolVar(&opts.RawResponse, "raw", false, "Return the whole reply instead of the reply data")
	f.StringVar(&opts.Label, "label", "", "Label used in logs and metrics")

	f.BoolVarP(&opts.Interactive, "interactive", "i", false, "Edit the request in an interactive form")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Print the envelope and encoded request without sending")
	f.BoolVar(&opts.Copy, "copy", false, "With --dry-run, copy the encoded request hex to the clipboard")

	f.StringVar(&opts.LogLevel, "log-level", "", "silent, error, info, verbose or debug")
	f.StringVar(&opts.LogFile, "log-file", "", "Also write JSON logs to this file")
	f.StringVar(&opts.MetricsCSV, "metrics-csv", "", "Write request metrics as CSV")
	f.StringVar(&opts.MetricsJSON, "metrics-json", "", "Write request metrics as JSON")
	f.StringVar(&opts.PCAPFile, "pcap", "", "Record the EtherNet/IP frames to a pcap file")
	f.StringVar(&opts.OutputDir, "output-dir", "", "Write run.json, summary, metrics and capture to this directory")

	cmd.MarkFlagsMutuallyExclusive("route", "route-hex")
	return cmd
}
