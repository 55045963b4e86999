package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sensorstim/capture2go/pkg/protocol"
)

func newStreamCmd() *cobra.Command {
	var target string
	var rate uint16
	var realTime bool
	var count int

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Start streaming and print decoded samples to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dev, closeFn, err := openDevice(ctx, target)
			if err != nil {
				return err
			}
			defer closeFn()

			if realTime {
				if err := dev.StartRealTimeStreaming(ctx, rate); err != nil {
					return fmt.Errorf("start real-time streaming: %w", err)
				}
				defer dev.StopRealTimeStreaming(context.Background())
			} else {
				if err := dev.StartStreaming(ctx, rate, protocol.EncodingFullFixed); err != nil {
					return fmt.Errorf("start streaming: %w", err)
				}
				defer dev.StopStreaming(context.Background())
			}

			printed := 0
			for item := range dev.Session().Stream() {
				pkg, err := protocol.ParsePackage(item.Packet())
				if err != nil {
					continue
				}
				for _, s := range pkg.Samples {
					fmt.Printf("t=%d quat=(%.4f,%.4f,%.4f,%.4f) delta=%.6f\n",
						s.TimestampNs, s.Quat.W, s.Quat.X, s.Quat.Y, s.Quat.Z, s.DeltaRad)
					printed++
					if count > 0 && printed >= count {
						return nil
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "usb", `"usb", a BLE address, or a playback file path`)
	cmd.Flags().Uint16Var(&rate, "rate", 0, "sample rate in Hz (0 = device default)")
	cmd.Flags().BoolVar(&realTime, "realtime", false, "use the BLE real-time sub-channel instead of plain streaming")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many samples (0 = run until interrupted)")
	return cmd
}
