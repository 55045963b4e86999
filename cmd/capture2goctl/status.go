package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorstim/capture2go/internal/client"
)

func newStatusCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running session's debug status endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := client.NewStatusClient(addr).GetStatus()
			if err != nil {
				return err
			}
			fmt.Printf("state=%s sensorState=%s queueDepth=%d droppedFromQueue=%d clockDelayNs=%d clockOffsetNs=%d\n",
				status.State, status.SensorState, status.QueueDepth, status.DroppedFromQueue,
				status.LastClockDelayNs, status.LastClockOffsetNs)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:6969", "debug server address (host:port)")
	return cmd
}
