// Package main is capture2goctl, a cobra-based control CLI for one
// capture2go device: scan for advertisements, connect and run the
// handshake, stream decoded samples, list and download files, and query a
// running session's debug status endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture2goctl",
		Short: "Control and inspect a capture2go IMU device",
	}
	cmd.AddCommand(
		newScanCmd(),
		newConnectCmd(),
		newStreamCmd(),
		newDownloadCmd(),
		newStatusCmd(),
	)
	return cmd
}
