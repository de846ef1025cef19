// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"encoding/json"

	"audiovis/internal/audio"

	"github.com/spf13/cobra"
)

const defaultWaveformSamples = 200

// waveformOutput is printed as JSON.
type waveformOutput struct {
	Title    string    `json:"title"`
	Duration float64   `json:"duration"`
	Samples  int       `json:"samples"`
	Peaks    []float64 `json:"peaks"`
}

func newWaveformCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waveform <file|url>",
		Short: "Print a downsampled amplitude overview of a track as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			// Nothing is played, so never touch the audio device.
			cfg.Playback.Headless = true
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			defer engine.Dispose()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			meta, err := engine.LoadAsset(ctx, sourceFor(args[0], false))
			if err != nil {
				return err
			}
			peaks, err := engine.GenerateFullWaveform(opts.samples)
			if err != nil {
				return err
			}
			return printWaveform(cmd, meta, peaks)
		},
	}
	cmd.Flags().IntVarP(&opts.samples, "samples", "n", defaultWaveformSamples, "Number of buckets")
	return cmd
}

func printWaveform(cmd *cobra.Command, meta audio.Metadata, peaks []float64) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(waveformOutput{
		Title:    meta.Title,
		Duration: meta.Duration,
		Samples:  len(peaks),
		Peaks:    peaks,
	})
}
