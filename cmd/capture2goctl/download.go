package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	var target string
	var list bool
	var out string

	cmd := &cobra.Command{
		Use:   "download [filename]",
		Short: "List on-device files, or download one by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dev, closeFn, err := openDevice(ctx, target)
			if err != nil {
				return err
			}
			defer closeFn()

			files, err := dev.ListFiles(ctx)
			if err != nil {
				return fmt.Errorf("list files: %w", err)
			}

			if list || len(args) == 0 {
				for _, f := range files {
					fmt.Printf("%-32s %10d bytes\n", f.Name, f.SizeBytes)
				}
				return nil
			}

			name := args[0]
			var size uint32
			var found bool
			for _, f := range files {
				if f.Name == name {
					size = f.SizeBytes
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no such file: %s", name)
			}

			if out == "" {
				out = name
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()

			result, err := dev.DownloadFile(ctx, name, 0, size, f)
			if err != nil {
				return fmt.Errorf("download %s: %w", name, err)
			}
			fmt.Printf("wrote %d bytes to %s (xxhash64=%x)\n", result.BytesWritten, out, result.Checksum)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "usb", `"usb", a BLE address, or a playback file path`)
	cmd.Flags().BoolVar(&list, "list", false, "list files instead of downloading")
	cmd.Flags().StringVar(&out, "out", "", "output path (default: the device filename)")
	return cmd
}
