// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"audiovis/internal/preset"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var activeMark = color.New(color.FgCyan, color.Bold)

func newPresetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available visualization presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			src, closeFn, err := presetSource(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			list, err := src.List(ctx)
			if err != nil {
				return err
			}
			printPresets(cmd.OutOrStdout(), list, cfg.Scene.Preset)
			return nil
		},
	}
}

func printPresets(w io.Writer, list []preset.Preset, active string) {
	for _, p := range list {
		marker := "  "
		if strings.EqualFold(p.Name, active) {
			marker = activeMark.Sprint("* ")
		}
		var effects []string
		if p.Effects.Rotation {
			effects = append(effects, "rotation")
		}
		if p.Effects.Scaling {
			effects = append(effects, "scaling")
		}
		if p.Effects.Pulsing {
			effects = append(effects, "pulsing")
		}
		if p.Effects.Particles {
			effects = append(effects, "particles")
		}
		fmt.Fprintf(w, "%s%-12s %-9s %2dx%-2d %s %s %s  %s\n",
			marker, p.Name, p.Geometry, p.GridSize, p.GridSize,
			p.Colors.Primary, p.Colors.Secondary, p.Colors.Accent,
			strings.Join(effects, ","))
	}
}
