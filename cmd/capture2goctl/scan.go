package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sensorstim/capture2go/internal/discovery"
)

func newScanCmd() *cobra.Command {
	var timeout time.Duration
	var prefix string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for BLE device advertisements",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := discovery.ScanFilter{}
			if prefix != "" {
				filter.NamePrefixes = []string{prefix}
			}
			found, err := discovery.ScanFor(timeout, filter)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			if len(found) == 0 {
				fmt.Println("no devices found")
				return nil
			}
			for _, a := range found {
				fmt.Printf("%-20s %-20s rssi=%d\n", a.Address, a.Name, a.RSSI)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "scan duration")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only show advertisements whose name has this prefix")
	return cmd
}
