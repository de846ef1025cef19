// SPDX-License-Identifier: MIT
package config

import "time"

// Defaults and limits for the analysis pipeline and the frame loop.
const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -90.0
	DefaultMaxDecibels = -10.0
	DefaultWindow      = "Blackman"
	DefaultLowBandBins = 20

	DefaultBeatWindow     = 100
	DefaultBeatSigma      = 1.5
	DefaultBeatRefractory = 300 * time.Millisecond
	DefaultBeatHistory    = 10

	DefaultOutputDevice    = MinDeviceID
	DefaultFramesPerBuffer = 512

	DefaultFPS             = 60
	DefaultPreset          = "Default"
	DefaultPublishInterval = 33 * time.Millisecond

	DefaultServerAddress = ":8080"
	DefaultUDPTarget     = "127.0.0.1:9090"

	MinDeviceID     = -1 // -1 represents the system default device
	MinFFTSize      = 32
	MaxFFTSize      = 32768
	MaxBufferFrames = 8192
	MaxFPS          = 240
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`
	LogLevel  string          `yaml:"log_level"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Beat      BeatConfig      `yaml:"beat"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Scene     SceneConfig     `yaml:"scene"`
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
}

// AnalysisConfig configures the frequency analyser.
type AnalysisConfig struct {
	FFTSize     int     `yaml:"fft_size"`      // Power of two in [32, 32768]; bins = fft_size/2.
	Smoothing   float64 `yaml:"smoothing"`     // Time smoothing constant in [0, 1).
	MinDecibels float64 `yaml:"min_decibels"`  // Maps to byte 0.
	MaxDecibels float64 `yaml:"max_decibels"`  // Maps to byte 255.
	Window      string  `yaml:"window"`        // Window function name (e.g., "Blackman", "Hann").
	LowBandBins int     `yaml:"low_band_bins"` // Bins averaged into the beat detector's energy reading.
}

// BeatConfig holds the beat detector's empirical constants.
type BeatConfig struct {
	WindowSize int           `yaml:"window_size"` // Energy readings kept for mean/stddev.
	Sigma      float64       `yaml:"sigma"`       // Threshold = mean + sigma*stddev.
	Refractory time.Duration `yaml:"refractory"`  // Minimum spacing between onsets.
	History    int           `yaml:"history"`     // Onsets kept for the tempo estimate.
}

// PlaybackConfig selects the host output device.
type PlaybackConfig struct {
	OutputDevice    int  `yaml:"output_device"`     // PortAudio device index (-1 for default).
	FramesPerBuffer int  `yaml:"frames_per_buffer"` // Frames per output callback.
	LowLatency      bool `yaml:"low_latency"`       // Request the device's low output latency.
	Headless        bool `yaml:"headless"`          // Run without an audio device.
}

// SceneConfig configures the display-refresh loop and where presets come from.
type SceneConfig struct {
	FPS       float64 `yaml:"fps"`
	Preset    string  `yaml:"preset"`     // Name of the preset to start with.
	PresetDir string  `yaml:"preset_dir"` // Directory of *.yaml preset files.
	PresetDB  string  `yaml:"preset_db"`  // SQLite database with a visualizer_presets table.
}

// TransportConfig holds settings for publishing frames to external renderers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
}

// ServerConfig configures the HTTP control surface.
type ServerConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Address     string   `yaml:"address"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Analysis: AnalysisConfig{
			FFTSize:     DefaultFFTSize,
			Smoothing:   DefaultSmoothing,
			MinDecibels: DefaultMinDecibels,
			MaxDecibels: DefaultMaxDecibels,
			Window:      DefaultWindow,
			LowBandBins: DefaultLowBandBins,
		},
		Beat: BeatConfig{
			WindowSize: DefaultBeatWindow,
			Sigma:      DefaultBeatSigma,
			Refractory: DefaultBeatRefractory,
			History:    DefaultBeatHistory,
		},
		Playback: PlaybackConfig{
			OutputDevice:    DefaultOutputDevice,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
		Scene: SceneConfig{
			FPS:    DefaultFPS,
			Preset: DefaultPreset,
		},
		Transport: TransportConfig{
			WebSocketEnabled: true,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  16 * time.Millisecond,
			PublishInterval:  DefaultPublishInterval,
		},
		Server: ServerConfig{
			Address:     DefaultServerAddress,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}
