// SPDX-License-Identifier: MIT
/*
Package audio implements the playback and analysis engine:
- Decoded assets played through a Host output stream (PortAudio or headless)
- A transport state machine (play, pause, stop, seek, volume)
- Real-time frequency analysis of exactly what is being played
- Energy based beat and tempo estimation
- Optional WAV capture of the output

Thread Safety:
- Engine methods must be called from one goroutine, the controlling thread
- The audio callback shares only the tap, the cursor, the gain and the capture
  recorder, all of which are atomic or internally locked
- Buffers used by the callback are pre-allocated
*/
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"audiovis/internal/analysis"
	"audiovis/internal/codec"
	"audiovis/internal/config"
	applog "audiovis/internal/log"
)

var logger = applog.For("engine")

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used for the transport position and beat
// timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithHTTPClient sets the client used by URL sources.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.httpClient = c }
}

// WithFramesPerBuffer sets the output callback size.
func WithFramesPerBuffer(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.framesPerBuffer = n
		}
	}
}

// Engine owns one decoded asset, its transport and the analyser fed by the
// output stream.
type Engine struct {
	cfg             config.AnalysisConfig
	beatCfg         config.BeatConfig
	host            Host
	clock           Clock
	httpClient      *http.Client
	framesPerBuffer int

	initialized bool
	disposed    bool

	analyser *analysis.Analyser
	detector *analysis.BeatDetector
	player   *player
	stream   Stream
	asset    *Asset

	state     State
	offset    float64   // Position at startWall while Playing, recorded position while Paused.
	startWall time.Time // When the current Playing run began.
}

// NewEngine returns an uninitialised engine. Nothing touches the host until
// Initialize or the first LoadAsset.
func NewEngine(cfg config.AnalysisConfig, beat config.BeatConfig, host Host, opts ...Option) *Engine {
	e := &Engine{
		cfg:             cfg,
		beatCfg:         beat,
		host:            host,
		clock:           SystemClock{},
		httpClient:      http.DefaultClient,
		framesPerBuffer: config.DefaultFramesPerBuffer,
		player:          &player{volume: NewVolume(1)},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize acquires the host audio subsystem and builds the analyser.
// Calling it again after success is a no-op.
func (e *Engine) Initialize() error {
	if e.disposed {
		return ErrDisposed
	}
	if e.initialized {
		return nil
	}
	if e.host == nil {
		return fmt.Errorf("%w: no audio host", ErrInitialization)
	}

	analyser, err := analysis.NewAnalyser(e.cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := e.host.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	e.analyser = analyser
	e.detector = analysis.NewBeatDetector(e.beatCfg)
	e.player.tap = analysis.NewTap(analyser.FFTSize())
	e.initialized = true

	logger.Infof("initialized (fft=%d, smoothing=%.2f, window=%s)", e.cfg.FFTSize, e.cfg.Smoothing, e.cfg.Window)
	return nil
}

// LoadAsset fetches and decodes src and makes it the current asset. The
// transport is stopped. On failure the previous asset stays loaded.
func (e *Engine) LoadAsset(ctx context.Context, src Source) (Metadata, error) {
	if e.disposed {
		return Metadata{}, ErrDisposed
	}
	if err := e.Initialize(); err != nil {
		return Metadata{}, err
	}

	name, data, err := src.Fetch(ctx, e.httpClient)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	pcm, err := codec.Decode(data)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	asset := newAsset(pcm, name, data)

	stream, err := e.host.OpenStream(StreamConfig{
		SampleRate:      float64(pcm.SampleRate),
		Channels:        outputChannels,
		FramesPerBuffer: e.framesPerBuffer,
	}, e.player.fill)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: open output stream: %w", ErrInitialization, err)
	}

	// The new asset is good; tear down the old one.
	e.stopTransport()
	if err := e.StopCapture(); err != nil {
		logger.Warnf("stopping capture for previous asset: %v", err)
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			logger.Warnf("closing previous stream: %v", err)
		}
	}

	e.asset = asset
	e.player.asset.Store(asset)
	e.player.cursor.Store(0)
	e.resetAnalysis()

	e.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		e.stream = nil
		e.asset = nil
		e.player.asset.Store(nil)
		return Metadata{}, fmt.Errorf("%w: start output stream: %w", ErrInitialization, err)
	}

	meta := asset.Metadata()
	logger.Infof("loaded %q (%s, %.2fs, %d Hz, %d ch)", meta.Title, meta.Format, meta.Duration, meta.SampleRate, meta.Channels)
	return meta, nil
}

// Play starts playback. From Stopped it starts at offset, from Paused it
// resumes at the recorded position plus offset, and while Playing it
// restarts at offset.
func (e *Engine) Play(offset float64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if math.IsNaN(offset) {
		offset = 0
	}
	start := offset
	if e.state == Paused {
		start += e.offset
	}
	e.startAt(e.clamp(start))
	return nil
}

// Pause freezes the transport at the current position.
func (e *Engine) Pause() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.state != Playing {
		return nil
	}
	pos := e.position()
	e.player.playing.Store(false)
	e.state = Paused
	e.offset = pos
	e.startWall = time.Time{}
	return nil
}

// Stop returns the transport to Stopped at position 0. It never fails on a
// live engine, even with nothing loaded.
func (e *Engine) Stop() error {
	if e.disposed {
		return ErrDisposed
	}
	e.stopTransport()
	return nil
}

// Seek moves to t seconds, clamped to the asset. While Playing, output
// restarts at t and the state stays Playing; while Paused only the recorded
// position changes; while Stopped the position is cued by moving to Paused.
func (e *Engine) Seek(t float64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if math.IsNaN(t) {
		t = 0
	}
	t = e.clamp(t)
	if e.state == Playing {
		e.startAt(t)
		return nil
	}
	e.state = Paused
	e.offset = t
	e.player.cursor.Store(e.asset.frameAt(t))
	return nil
}

// SetVolume sets the output gain, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) error {
	if e.disposed {
		return ErrDisposed
	}
	e.player.volume.Set(v)
	return nil
}

// Volume returns the output gain.
func (e *Engine) Volume() (float64, error) {
	if e.disposed {
		return 0, ErrDisposed
	}
	return e.player.volume.Get(), nil
}

// FrequencyData returns the analyser snapshot of the most recent output.
// With nothing loaded it returns the empty buffer. Calls made before new
// audio has been played return the same snapshot.
func (e *Engine) FrequencyData() (analysis.FeatureBuffer, error) {
	if e.disposed {
		return analysis.FeatureBuffer{}, ErrDisposed
	}
	if e.asset == nil || e.analyser == nil {
		return analysis.EmptyFeatureBuffer(), nil
	}
	return e.analyser.Analyse(e.player.tap, e.clock.Now().UnixMilli()), nil
}

// DetectBeats feeds the low band energy of the latest snapshot to the beat
// detector and returns its estimate.
func (e *Engine) DetectBeats() (analysis.BeatEstimate, error) {
	if e.disposed {
		return analysis.BeatEstimate{}, ErrDisposed
	}
	if e.asset == nil || e.detector == nil {
		return analysis.BeatEstimate{Onsets: []int64{}}, nil
	}
	fb, err := e.FrequencyData()
	if err != nil {
		return analysis.BeatEstimate{}, err
	}
	return e.detector.Process(fb.LowBandEnergy(e.cfg.LowBandBins), e.clock.Now().UnixMilli()), nil
}

// GenerateFullWaveform downsamples the first channel of the whole asset into
// samples buckets of mean absolute amplitude. It ignores the transport.
func (e *Engine) GenerateFullWaveform(samples int) ([]float64, error) {
	if e.disposed {
		return nil, ErrDisposed
	}
	if e.asset == nil || samples <= 0 {
		return []float64{}, nil
	}
	return analysis.Downsample(e.asset.samples[0], samples), nil
}

// CurrentTime returns the transport position in seconds.
func (e *Engine) CurrentTime() (float64, error) {
	if e.disposed {
		return 0, ErrDisposed
	}
	e.syncEnd()
	return e.position(), nil
}

// Duration returns the asset length in seconds, 0 when nothing is loaded.
func (e *Engine) Duration() (float64, error) {
	if e.disposed {
		return 0, ErrDisposed
	}
	if e.asset == nil {
		return 0, nil
	}
	return e.asset.Duration(), nil
}

// IsPlaying reports whether the transport is Playing.
func (e *Engine) IsPlaying() (bool, error) {
	if e.disposed {
		return false, ErrDisposed
	}
	e.syncEnd()
	return e.state == Playing, nil
}

// Transport returns a snapshot of the transport state.
func (e *Engine) Transport() (TransportState, error) {
	if e.disposed {
		return TransportState{}, ErrDisposed
	}
	e.syncEnd()
	return TransportState{
		State:           e.state,
		PositionSeconds: e.position(),
		StartWallClock:  e.startWall,
	}, nil
}

// Metadata returns the current asset's metadata.
func (e *Engine) Metadata() (Metadata, error) {
	if e.disposed {
		return Metadata{}, ErrDisposed
	}
	if e.asset == nil {
		return Metadata{}, ErrNoAsset
	}
	return e.asset.Metadata(), nil
}

// StartCapture records the post-gain output to a WAV file at path.
func (e *Engine) StartCapture(path string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.player.capture.Load() != nil {
		return errors.New("already capturing")
	}
	rec, err := newRecorder(path, e.asset.meta.SampleRate, outputChannels, e.framesPerBuffer)
	if err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	e.player.capture.Store(rec)
	logger.Infof("capturing output to %s", path)
	return nil
}

// StopCapture finalises the capture file, if any.
func (e *Engine) StopCapture() error {
	if e.disposed {
		return ErrDisposed
	}
	rec := e.player.capture.Swap(nil)
	if rec == nil {
		return nil
	}
	return rec.close()
}

// Dispose stops the transport and releases the stream, the host and the
// asset. Every later call returns ErrDisposed.
func (e *Engine) Dispose() error {
	if e.disposed {
		return ErrDisposed
	}
	e.stopTransport()

	var errs []error
	if err := e.StopCapture(); err != nil {
		errs = append(errs, err)
	}
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
		e.stream = nil
	}
	if e.initialized {
		if err := e.host.Terminate(); err != nil {
			errs = append(errs, fmt.Errorf("terminate host: %w", err))
		}
	}

	e.player.asset.Store(nil)
	e.asset = nil
	e.disposed = true
	logger.Debugf("disposed")
	return errors.Join(errs...)
}

// ready checks the engine can run a transport command.
func (e *Engine) ready() error {
	if e.disposed {
		return ErrDisposed
	}
	if e.asset == nil {
		return ErrNoAsset
	}
	e.syncEnd()
	return nil
}

func (e *Engine) startAt(pos float64) {
	e.player.cursor.Store(e.asset.frameAt(pos))
	e.player.playing.Store(true)
	e.state = Playing
	e.offset = pos
	e.startWall = e.clock.Now()
}

func (e *Engine) stopTransport() {
	e.player.playing.Store(false)
	e.player.cursor.Store(0)
	e.state = Stopped
	e.offset = 0
	e.startWall = time.Time{}
}

// position derives the transport position from the wall clock while Playing.
func (e *Engine) position() float64 {
	switch e.state {
	case Playing:
		pos := e.offset + e.clock.Now().Sub(e.startWall).Seconds()
		return e.clamp(max(pos, e.offset))
	case Paused:
		return e.offset
	default:
		return 0
	}
}

// syncEnd moves a transport that has run past the end of the asset to
// Stopped.
func (e *Engine) syncEnd() {
	if e.state != Playing || e.asset == nil {
		return
	}
	if e.offset+e.clock.Now().Sub(e.startWall).Seconds() >= e.asset.Duration() {
		logger.Debugf("reached end of %q", e.asset.meta.Title)
		e.stopTransport()
	}
}

func (e *Engine) clamp(t float64) float64 {
	if e.asset == nil {
		return 0
	}
	return min(max(t, 0), e.asset.Duration())
}

func (e *Engine) resetAnalysis() {
	if e.analyser != nil {
		e.analyser.Reset()
	}
	if e.detector != nil {
		e.detector.Reset()
	}
	if e.player.tap != nil {
		e.player.tap.Reset()
	}
}
