// SPDX-License-Identifier: MIT

// Package cmd is the audiovis command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"audiovis/internal/config"
	applog "audiovis/internal/log"
	"audiovis/internal/preset"
	"audiovis/pkg/build"

	"github.com/spf13/cobra"
)

var logger = applog.For("cli")

// options holds flag values. Flags only override the config file when set.
type options struct {
	configPath string
	logLevel   string
	presetName string
	fftSize    int
	fps        float64
	device     int
	headless   bool
	noTUI      bool
	serve      bool
	udp        bool
	record     string
	volume     float64
	logFile    string
	samples    int
}

// Execute runs the command line with os.Args.
func Execute() error {
	return newRootCmd(os.Stdout, &options{}).Execute()
}

func newRootCmd(out io.Writer, opts *options) *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML config file (default: ./config.yaml or ./audiovis.yaml if present)")
	pf.StringVar(&opts.logLevel, "log-level", "",
		"Log level: debug, info, warn or error")
	pf.StringVarP(&opts.presetName, "preset", "p", config.DefaultPreset,
		"Name of the visualization preset to start with")
	pf.IntVar(&opts.fftSize, "fft-size", config.DefaultFFTSize,
		"Samples per analysis window, a power of two")
	pf.Float64Var(&opts.fps, "fps", config.DefaultFPS,
		"Frame loop rate")
	pf.IntVarP(&opts.device, "device", "d", config.DefaultOutputDevice,
		"Output device ID, -1 for the system default. Use 'devices' to list them.")
	pf.BoolVar(&opts.headless, "headless", false,
		"Run without an audio device; analysis still follows the playback clock")

	rootCmd.AddCommand(
		newPlayCmd(opts),
		newWaveformCmd(opts),
		newDevicesCmd(),
		newPresetsCmd(opts),
	)
	return rootCmd
}

// loadConfig reads the config file and applies any flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("preset") {
		cfg.Scene.Preset = opts.presetName
	}
	if flags.Changed("fft-size") {
		cfg.Analysis.FFTSize = opts.fftSize
	}
	if flags.Changed("fps") {
		cfg.Scene.FPS = opts.fps
	}
	if flags.Changed("device") {
		cfg.Playback.OutputDevice = opts.device
	}
	if flags.Changed("headless") {
		cfg.Playback.Headless = opts.headless
	}
	if flags.Changed("serve") {
		cfg.Server.Enabled = opts.serve
	}
	if flags.Changed("udp") {
		cfg.Transport.UDPEnabled = opts.udp
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, ok := applog.ParseLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
	return cfg, nil
}

// presetSource chains the user's preset files and database in front of the
// built-ins, so a user preset shadows a built-in of the same name. The
// returned func closes the database.
func presetSource(cfg *config.Config) (preset.Source, func(), error) {
	var chain preset.Chain
	closeFn := func() {}

	if cfg.Scene.PresetDir != "" {
		chain = append(chain, preset.YAMLSource{Dir: cfg.Scene.PresetDir})
	}
	if cfg.Scene.PresetDB != "" {
		db, err := preset.OpenSQLite(cfg.Scene.PresetDB)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, db)
		closeFn = func() {
			if err := db.Close(); err != nil {
				logger.Warnf("closing preset database: %v", err)
			}
		}
	}
	chain = append(chain, preset.StaticSource(preset.Builtins()))
	return chain, closeFn, nil
}
