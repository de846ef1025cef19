// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"audiovis/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"audiovis.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks every section and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Analysis.Validate(), c.Beat.Validate())

	if c.Playback.FramesPerBuffer <= 0 || c.Playback.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("playback.frames_per_buffer must be in (0, %d], got %d", MaxBufferFrames, c.Playback.FramesPerBuffer))
	}
	if c.Playback.OutputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("playback.output_device must be >= %d, got %d", MinDeviceID, c.Playback.OutputDevice))
	}
	if c.Scene.FPS <= 0 || c.Scene.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("scene.fps must be in (0, %d], got %g", MaxFPS, c.Scene.FPS))
	}
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}
	if c.Server.Enabled && c.Server.Address == "" {
		errs = append(errs, errors.New("server.address must be set when the server is enabled"))
	}
	return errors.Join(errs...)
}

// Validate checks the analyser settings.
func (a AnalysisConfig) Validate() error {
	var errs []error
	if !bitint.InRange(a.FFTSize, MinFFTSize, MaxFFTSize) {
		errs = append(errs, fmt.Errorf("analysis.fft_size must be a power of 2 in [%d, %d], got %d", MinFFTSize, MaxFFTSize, a.FFTSize))
	}
	if a.Smoothing < 0 || a.Smoothing >= 1 || math.IsNaN(a.Smoothing) {
		errs = append(errs, fmt.Errorf("analysis.smoothing must be in [0, 1), got %g", a.Smoothing))
	}
	if !(a.MinDecibels < a.MaxDecibels) {
		errs = append(errs, fmt.Errorf("analysis.min_decibels (%g) must be below max_decibels (%g)", a.MinDecibels, a.MaxDecibels))
	}
	if a.LowBandBins <= 0 {
		errs = append(errs, fmt.Errorf("analysis.low_band_bins must be positive, got %d", a.LowBandBins))
	}
	return errors.Join(errs...)
}

// Validate checks the beat detector settings.
func (b BeatConfig) Validate() error {
	var errs []error
	if b.WindowSize < 2 {
		errs = append(errs, fmt.Errorf("beat.window_size must be at least 2, got %d", b.WindowSize))
	}
	if b.Sigma < 0 || math.IsNaN(b.Sigma) {
		errs = append(errs, fmt.Errorf("beat.sigma must be non-negative, got %g", b.Sigma))
	}
	if b.Refractory < 0 {
		errs = append(errs, fmt.Errorf("beat.refractory must be non-negative, got %s", b.Refractory))
	}
	if b.History < 2 {
		errs = append(errs, fmt.Errorf("beat.history must be at least 2, got %d", b.History))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides applies ENV_* variables on top of file values. Unparseable
// values are ignored so a typo in the environment never prevents startup.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok && val != "" {
		cfg.LogLevel = val
	}

	// ENV_FFT_SIZE
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Analysis.FFTSize = n
		}
	}
	// ENV_FPS
	if val, ok := os.LookupEnv("ENV_FPS"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Scene.FPS = f
		}
	}
	// ENV_PRESET
	if val, ok := os.LookupEnv("ENV_PRESET"); ok && val != "" {
		cfg.Scene.Preset = val
	}
	// ENV_HEADLESS
	if val, ok := os.LookupEnv("ENV_HEADLESS"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Playback.Headless = bVal
		}
	}

	// ENV_UDP_{...}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}

	// ENV_SERVER_{...}
	if val, ok := os.LookupEnv("ENV_SERVER_ADDRESS"); ok && val != "" {
		cfg.Server.Address = val
	}
	if val, ok := os.LookupEnv("ENV_CORS_ORIGINS"); ok && val != "" {
		cfg.Server.CORSOrigins = strings.Split(val, ",")
	}
}
