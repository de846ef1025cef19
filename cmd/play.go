// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"audiovis/internal/audio"
	"audiovis/internal/config"
	"audiovis/internal/preset"
	"audiovis/internal/server"
	"audiovis/internal/session"
	"audiovis/internal/transport"
	"audiovis/internal/transport/udp"
	"audiovis/internal/tui"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

const headlessPoll = 250 * time.Millisecond

func newPlayCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <file|url>",
		Short: "Play a track and drive the visualization from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runPlay(cmd.Context(), cmd, cfg, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.noTUI, "no-tui", false, "Log instead of showing the terminal monitor")
	f.BoolVar(&opts.serve, "serve", false, "Serve the control API and frame socket")
	f.BoolVar(&opts.udp, "udp", false, "Stream mesh packets to the configured UDP target")
	f.StringVarP(&opts.record, "record", "r", "", "Capture the rendered output to a WAV file")
	f.Float64Var(&opts.volume, "volume", 1, "Output gain in [0, 1]")
	f.StringVar(&opts.logFile, "log-file", "", "Write logs here while the monitor is shown")
	return cmd
}

// newHost picks the output backend.
func newHost(cfg *config.Config) audio.Host {
	if cfg.Playback.Headless {
		return audio.NullHost{}
	}
	return &audio.PortAudioHost{
		DeviceID:   cfg.Playback.OutputDevice,
		LowLatency: cfg.Playback.LowLatency,
	}
}

// newEngine returns an initialised engine. Callers dispose it.
func newEngine(cfg *config.Config) (*audio.Engine, error) {
	engine := audio.NewEngine(cfg.Analysis, cfg.Beat, newHost(cfg),
		audio.WithFramesPerBuffer(cfg.Playback.FramesPerBuffer))
	if err := engine.Initialize(); err != nil {
		return nil, err
	}
	return engine, nil
}

// sourceFor treats http(s) arguments as URLs and everything else as a path.
// Downloads show a progress bar on stderr.
func sourceFor(arg string, progress bool) audio.Source {
	if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
		return audio.FileSource(arg)
	}
	src := audio.URLSource{URL: arg}
	if progress {
		src.Progress = func(total int64) io.Writer {
			return progressbar.DefaultBytes(total, "downloading")
		}
	}
	return src
}

func initialPreset(ctx context.Context, src preset.Source, name string) preset.Preset {
	p, err := src.Get(ctx, name)
	if err != nil {
		logger.Warnf("preset %q: %v, using %q", name, err, preset.Default().Name)
		return preset.Default()
	}
	return p
}

func runPlay(parent context.Context, cmd *cobra.Command, cfg *config.Config, opts *options, arg string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	out := cmd.OutOrStdout()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Dispose(); err != nil {
			logger.Warnf("disposing engine: %v", err)
		}
	}()

	meta, err := engine.LoadAsset(ctx, sourceFor(arg, true))
	if err != nil {
		return err
	}
	color.New(color.FgCyan, color.Bold).Fprintf(out, "%s", meta.Title)
	fmt.Fprintf(out, "  %s, %d Hz, %d ch, %s\n", meta.Format, meta.SampleRate, meta.Channels,
		time.Duration(meta.Duration*float64(time.Second)).Round(time.Second))

	presets, closePresets, err := presetSource(cfg)
	if err != nil {
		return err
	}
	defer closePresets()
	list, err := presets.List(ctx)
	if err != nil {
		return err
	}
	active := preset.NewActive(initialPreset(ctx, presets, cfg.Scene.Preset))

	// The engine is not shared yet, so set it up directly.
	if cmd.Flags().Changed("volume") {
		if err := engine.SetVolume(opts.volume); err != nil {
			return err
		}
	}
	if opts.record != "" {
		if err := engine.StartCapture(opts.record); err != nil {
			return err
		}
		defer func() {
			if err := engine.StopCapture(); err != nil {
				logger.Errorf("finishing capture: %v", err)
				return
			}
			color.New(color.FgGreen).Fprintf(out, "Recording saved to: %s\n", opts.record)
		}()
	}
	if err := engine.Play(0); err != nil {
		return err
	}

	sinks := transport.Multi{transport.NewLoggingTransport(uint64(max(cfg.Scene.FPS, 1)))}
	var frames *transport.WebSocketTransport
	if cfg.Transport.WebSocketEnabled {
		frames = transport.NewWebSocketTransport(transport.WebSocketOptions{
			AllowedOrigins:  cfg.Server.CORSOrigins,
			MinSendInterval: cfg.Transport.PublishInterval,
		})
		sinks = append(sinks, frames)
	}
	defer sinks.Close()

	sess := session.New(engine, active, session.Options{
		FPS:             cfg.Scene.FPS,
		PublishInterval: cfg.Transport.PublishInterval,
		Transport:       sinks,
	})

	if cfg.Transport.UDPEnabled {
		publisher, err := startUDP(cfg, sess)
		if err != nil {
			return err
		}
		defer publisher()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- sess.Run(ctx) }()

	serverDone := make(chan error, 1)
	switch {
	case cfg.Server.Enabled:
		gin.SetMode(gin.ReleaseMode)
		var frameHandler http.Handler
		if frames != nil {
			frameHandler = frames
		}
		srv := server.New(cfg.Server, sess, presets, frameHandler)
		go func() { serverDone <- srv.Run(ctx) }()
	case frames != nil:
		frames.Listen(cfg.Server.Address)
	}

	if opts.noTUI {
		err = waitHeadless(ctx, sess, cfg.Server.Enabled, serverDone)
	} else {
		err = runMonitor(ctx, sess, list, opts.logFile)
	}
	cancel()
	if lerr := <-loopDone; lerr != nil && err == nil {
		err = lerr
	}
	return err
}

// startUDP streams the scene graph to the configured target. The returned
// func stops the publisher and closes the socket.
func startUDP(cfg *config.Config, sess *session.Session) (func(), error) {
	sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
	if err != nil {
		return nil, err
	}
	publisher, err := udp.NewFramePublisher(cfg.Transport.UDPSendInterval, sender, sess.Graph())
	if err != nil {
		sender.Close()
		return nil, err
	}
	publisher.Start()
	return func() {
		if err := publisher.Close(); err != nil {
			logger.Warnf("stopping UDP publisher: %v", err)
		}
		if err := sender.Close(); err != nil {
			logger.Warnf("closing UDP sender: %v", err)
		}
	}, nil
}

// waitHeadless blocks until ctx is done, the server fails or, when nothing
// is being served, the track ends.
func waitHeadless(ctx context.Context, sess *session.Session, serving bool, serverDone <-chan error) error {
	ticker := time.NewTicker(headlessPoll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-serverDone:
			return err
		case <-ticker.C:
			st := sess.Status()
			if !serving && st.Frames > 0 && st.State == audio.Stopped {
				logger.Infof("playback finished after %d frames", st.Frames)
				return nil
			}
		}
	}
}

// runMonitor shows the terminal monitor. Logs go to logFile, or nowhere,
// while it is up.
func runMonitor(ctx context.Context, sess *session.Session, presets []preset.Preset, logFile string) error {
	var logs io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logs = f
	}
	err := tui.Run(ctx, sess, presets, logs)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
