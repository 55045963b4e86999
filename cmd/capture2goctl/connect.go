package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect, run the handshake, and print device info",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dev, closeFn, err := openDevice(ctx, target)
			if err != nil {
				return err
			}
			defer closeFn()

			info, err := dev.Init(ctx)
			if err != nil {
				return fmt.Errorf("device info: %w", err)
			}
			fmt.Printf("serial=%x hw=%s fw=%s\n", info.Serial, info.HardwareVersion, info.FirmwareVersion)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "usb", `"usb", a BLE address, or a playback file path`)
	return cmd
}
