// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"audiovis/internal/audio"
	"audiovis/internal/config"
	applog "audiovis/internal/log"
	"audiovis/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

// run executes the command line with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, &options{})
	root.SetArgs(args)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig writes a YAML config that keeps tests off the network.
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audiovis.yaml")
	body := "log_level: error\ntransport:\n  websocket_enabled: false\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Cleanup(func() { applog.SetLevel(applog.LevelInfo) })
	return path
}

func writeTone(t *testing.T, seconds float64) string {
	t.Helper()
	data, err := utils.WAVBytes(testRate, utils.GenerateSineWave(int(seconds*testRate), testRate, 250, 0.5))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "audiovis dev")
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	cfgPath := writeConfig(t, "scene:\n  fps: 30\n  preset: Ambient\n")
	opts := &options{}
	root := newRootCmd(&bytes.Buffer{}, opts)
	play, _, err := root.Find([]string{"play"})
	require.NoError(t, err)
	require.NoError(t, play.ParseFlags([]string{"--config", cfgPath, "--fps", "90", "--fft-size", "512", "--udp"}))

	cfg, err := loadConfig(play, opts)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Scene.FPS)
	assert.Equal(t, 512, cfg.Analysis.FFTSize)
	assert.True(t, cfg.Transport.UDPEnabled)
	assert.Equal(t, "Ambient", cfg.Scene.Preset, "unset flags keep file values")
	assert.Equal(t, config.DefaultFramesPerBuffer, cfg.Playback.FramesPerBuffer)
	assert.Equal(t, applog.LevelError, applog.GetLevel())
}

func TestLoadConfigErrors(t *testing.T) {
	cfgPath := writeConfig(t, "")
	tests := []struct {
		name string
		args []string
	}{
		{"bad fft size", []string{"presets", "--config", cfgPath, "--fft-size", "1000"}},
		{"bad fps", []string{"presets", "--config", cfgPath, "--fps", "0"}},
		{"bad log level", []string{"presets", "--config", cfgPath, "--log-level", "loud"}},
		{"missing file", []string{"presets", "--config", filepath.Join(t.TempDir(), "nope.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestPresetsCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")
	out, err := run(t, "presets", "--config", cfgPath, "--preset", "heavy")
	require.NoError(t, err)
	for _, want := range []string{"Default", "Electronic", "Ambient", "Heavy", "Wave", "12x12", "#ef4444"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "* Heavy")
}

func TestPresetsFromDirectoryShadowBuiltins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wave.yaml"), []byte(`
name: Wave
type: particles
grid_size: 4
color_scheme:
  primary: "#112233"
  secondary: "#445566"
  accent: "#778899"
effects:
  particles: true
`), 0o644))
	cfgPath := writeConfig(t, "scene:\n  preset_dir: "+dir+"\n")

	out, err := run(t, "presets", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "particles  4x4")
	assert.Contains(t, out, "#112233")
	assert.NotContains(t, out, "#06b6d4 #0ea5e9", "the built-in Wave is shadowed")
}

func TestWaveformCommand(t *testing.T) {
	cfgPath := writeConfig(t, "")
	track := writeTone(t, 1)

	out, err := run(t, "waveform", track, "--config", cfgPath, "--samples", "25")
	require.NoError(t, err)

	var got waveformOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "tone", got.Title)
	assert.InDelta(t, 1.0, got.Duration, 1e-9)
	assert.Equal(t, 25, got.Samples)
	require.Len(t, got.Peaks, 25)
	assert.InDelta(t, 0.5*2/3.141592653589793, got.Peaks[12], 0.02)
}

func TestWaveformCommandErrors(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, err := run(t, "waveform", filepath.Join(t.TempDir(), "missing.wav"), "--config", cfgPath)
	assert.ErrorIs(t, err, audio.ErrFetch)

	_, err = run(t, "waveform", "--config", cfgPath)
	assert.Error(t, err, "a track argument is required")
}

func TestPlayHeadlessRunsToTheEnd(t *testing.T) {
	cfgPath := writeConfig(t, "")
	track := writeTone(t, 0.3)
	capture := filepath.Join(t.TempDir(), "capture.wav")

	done := make(chan error, 1)
	var out string
	go func() {
		var err error
		out, err = run(t, "play", track, "--config", cfgPath,
			"--headless", "--no-tui", "--fft-size", "256", "--volume", "0.5", "--record", capture)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("play did not return at the end of the track")
	}
	assert.Contains(t, out, "tone")
	assert.Contains(t, out, "Recording saved to: "+capture)

	info, err := os.Stat(capture)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(44))
}

func TestPlayRejectsMissingTrack(t *testing.T) {
	cfgPath := writeConfig(t, "")
	_, err := run(t, "play", filepath.Join(t.TempDir(), "missing.wav"), "--config", cfgPath, "--headless", "--no-tui")
	assert.ErrorIs(t, err, audio.ErrFetch)
}

func TestSourceFor(t *testing.T) {
	assert.Equal(t, audio.FileSource("song.mp3"), sourceFor("song.mp3", true))

	src, ok := sourceFor("https://example.com/a.wav", true).(audio.URLSource)
	require.True(t, ok)
	assert.Equal(t, "https://example.com/a.wav", src.URL)
	assert.NotNil(t, src.Progress)

	src = sourceFor("http://example.com/a.wav", false).(audio.URLSource)
	assert.Nil(t, src.Progress)
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	printDevices(&buf, nil)
	assert.Contains(t, buf.String(), "No audio output devices found.")

	buf.Reset()
	printDevices(&buf, []audio.Device{
		{ID: 0, Name: "Speakers", MaxOutputChannels: 2, DefaultSampleRate: 48000, LowLatencyMs: 10, HighLatencyMs: 40, Default: true},
		{ID: 3, Name: "HDMI", MaxOutputChannels: 8, DefaultSampleRate: 44100},
	})
	out := buf.String()
	assert.Contains(t, out, "[0] Speakers (default)")
	assert.Contains(t, out, "[3] HDMI\n")
	assert.Contains(t, out, "2 ch, 48000 Hz, latency 10.0-40.0 ms")
}
