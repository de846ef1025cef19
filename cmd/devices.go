// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"

	"audiovis/internal/audio"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	defaultMark = color.New(color.FgGreen, color.Bold)
	dimText     = color.New(color.Faint)
)

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := audio.Devices()
			if err != nil {
				return err
			}
			printDevices(cmd.OutOrStdout(), devices)
			return nil
		},
	}
}

func printDevices(w io.Writer, devices []audio.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No audio output devices found.")
		return
	}
	for _, d := range devices {
		fmt.Fprintf(w, "[%d] %s", d.ID, d.Name)
		if d.Default {
			defaultMark.Fprint(w, " (default)")
		}
		fmt.Fprintln(w)
		dimText.Fprintf(w, "    %d ch, %.0f Hz, latency %.1f-%.1f ms\n",
			d.MaxOutputChannels, d.DefaultSampleRate, d.LowLatencyMs, d.HighLatencyMs)
	}
}
