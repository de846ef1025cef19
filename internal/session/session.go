// SPDX-License-Identifier: MIT

/*
Package session runs the display-refresh loop that ties the audio engine to
the scene:
- One goroutine owns the engine, the scene controller and the frame clock
- Other goroutines submit engine work through Do; it runs between ticks
- Every tick the controller pulls one feature snapshot and updates the grid
- Frames are published to a transport at most once per publish interval
- Readers get a lock-free Status snapshot without touching the engine
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"audiovis/internal/analysis"
	"audiovis/internal/audio"
	"audiovis/internal/config"
	applog "audiovis/internal/log"
	"audiovis/internal/mapping"
	"audiovis/internal/preset"
	"audiovis/internal/scene"
	"audiovis/internal/transport"

	"github.com/google/uuid"
)

var logger = applog.For("session")

// ErrStopped is returned by Do when the loop is not running.
var ErrStopped = errors.New("session stopped")

// Levels is the scalar part of a feature snapshot.
type Levels struct {
	Peak    float64 `json:"peak"`
	RMS     float64 `json:"rms"`
	Bass    float64 `json:"bass"`
	Mid     float64 `json:"mid"`
	Treble  float64 `json:"treble"`
	Average float64 `json:"average"`
}

func levelsOf(fb analysis.FeatureBuffer) Levels {
	return Levels{fb.Peak, fb.RMS, fb.Bass, fb.Mid, fb.Treble, fb.Average}
}

// Status is what UIs need to draw the transport and the meters.
type Status struct {
	SessionID string                `json:"session_id"`
	State     audio.State           `json:"state"`
	Position  float64               `json:"position"`
	Duration  float64               `json:"duration"`
	Volume    float64               `json:"volume"`
	Asset     *audio.Metadata       `json:"asset,omitempty"`
	Preset    string                `json:"preset"`
	Levels    Levels                `json:"levels"`
	Beat      analysis.BeatEstimate `json:"beat"`
	Frames    uint64                `json:"frames"`
}

// Frame is published to the transport for external renderers.
type Frame struct {
	Seq           uint64                  `json:"seq"`
	SessionID     string                  `json:"session_id"`
	TimestampMs   int64                   `json:"timestamp_ms"`
	Elapsed       float64                 `json:"elapsed"`
	Preset        preset.Preset           `json:"preset"`
	Playing       bool                    `json:"playing"`
	Position      float64                 `json:"position"`
	Levels        Levels                  `json:"levels"`
	Beat          analysis.BeatEstimate   `json:"beat"`
	GroupRotation float64                 `json:"group_rotation"`
	Lighting      mapping.LightingState   `json:"lighting"`
	Meshes        []mapping.MeshTransform `json:"meshes"`
}

// Options configures a Session.
type Options struct {
	FPS             float64
	PublishInterval time.Duration
	Transport       transport.Transport
	Clock           audio.Clock
}

type job struct {
	fn   func(*audio.Engine) error
	done chan error
}

// Session owns one engine, one scene graph and the loop that drives them.
type Session struct {
	id        string
	engine    *audio.Engine
	active    *preset.Active
	graph     *scene.MemoryGraph
	ctrl      *scene.Controller
	transport transport.Transport
	clock     audio.Clock
	period    time.Duration
	publish   time.Duration

	jobs    chan job
	running atomic.Bool
	stopped chan struct{}

	// Loop state, touched only by the loop goroutine.
	start       time.Time
	lastPublish time.Time
	seq         uint64
	features    analysis.FeatureBuffer
	beat        analysis.BeatEstimate
	playing     bool

	status atomic.Pointer[Status]
}

// New returns a session over engine. The engine must not be used directly
// once Run has started; submit work through Do instead.
func New(engine *audio.Engine, active *preset.Active, opts Options) *Session {
	if opts.FPS <= 0 {
		opts.FPS = config.DefaultFPS
	}
	if opts.Transport == nil {
		opts.Transport = transport.Discard{}
	}
	if opts.Clock == nil {
		opts.Clock = audio.SystemClock{}
	}

	s := &Session{
		id:        uuid.NewString(),
		engine:    engine,
		active:    active,
		graph:     scene.NewMemoryGraph(),
		transport: opts.Transport,
		clock:     opts.Clock,
		period:    time.Duration(float64(time.Second) / opts.FPS),
		publish:   opts.PublishInterval,
		jobs:      make(chan job),
		stopped:   make(chan struct{}),
		beat:      analysis.BeatEstimate{Onsets: []int64{}},
	}
	s.ctrl = scene.NewController(s.graph, scene.FeaturesFunc(s.poll), active)
	s.status.Store(&Status{SessionID: s.id, Preset: active.Load().Name, Beat: s.beat})
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Graph returns the scene graph the controller writes into. It is safe to
// snapshot from any goroutine.
func (s *Session) Graph() *scene.MemoryGraph { return s.graph }

// Presets returns the active preset holder.
func (s *Session) Presets() *preset.Active { return s.active }

// Status returns the most recent status snapshot.
func (s *Session) Status() Status { return *s.status.Load() }

// Run drives the loop until ctx is done. It releases the scene grid on
// exit but leaves the engine to its owner.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}
	defer close(s.stopped)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	s.start = s.clock.Now()
	logger.Infof("session %s running at %.0f fps", s.id, float64(time.Second)/float64(s.period))

	for {
		select {
		case <-ctx.Done():
			if err := s.ctrl.Close(); err != nil {
				logger.Warnf("releasing scene: %v", err)
			}
			logger.Infof("session %s stopped after %d frames", s.id, s.seq)
			return nil
		case j := <-s.jobs:
			err := j.fn(s.engine)
			s.refreshStatus()
			j.done <- err
		case <-ticker.C:
			s.tick(s.clock.Now())
		}
	}
}

// Do runs fn on the loop goroutine between ticks and returns its error.
func (s *Session) Do(ctx context.Context, fn func(*audio.Engine) error) error {
	if !s.running.Load() {
		return ErrStopped
	}
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetPreset makes p the active preset. The grid follows on the next tick.
func (s *Session) SetPreset(p preset.Preset) error {
	if err := s.active.Store(p); err != nil {
		return err
	}
	logger.Infof("preset changed to %q", p.Name)
	return nil
}

// poll is the controller's feature source.
func (s *Session) poll() (analysis.FeatureBuffer, bool) {
	playing, err := s.engine.IsPlaying()
	if err != nil || !playing {
		s.playing = false
		return analysis.FeatureBuffer{}, false
	}
	fb, err := s.engine.FrequencyData()
	if err != nil {
		s.playing = false
		return analysis.FeatureBuffer{}, false
	}
	s.playing = true
	s.features = fb
	return fb, true
}

// tick advances one frame at now.
func (s *Session) tick(now time.Time) {
	elapsed := now.Sub(s.start).Seconds()
	if err := s.ctrl.Tick(elapsed); err != nil {
		logger.Errorf("scene tick: %v", err)
	}
	if s.playing {
		if est, err := s.engine.DetectBeats(); err == nil {
			if est.Onset {
				logger.Debugf("onset at %.2fs, %.1f bpm", elapsed, est.BPM)
			}
			s.beat = est
		}
	}

	if s.publish > 0 && now.Sub(s.lastPublish) < s.publish {
		return
	}
	s.lastPublish = now
	s.seq++
	frame := s.frame(now, elapsed)
	if err := s.transport.Send(frame); err != nil {
		logger.Debugf("publish frame %d: %v", frame.Seq, err)
	}
	s.refreshStatus()
}

func (s *Session) frame(now time.Time, elapsed float64) Frame {
	snap := s.graph.Snapshot()
	meshes := make([]mapping.MeshTransform, len(snap.Meshes))
	for i, m := range snap.Meshes {
		meshes[i] = m.Transform
	}
	pos, _ := s.engine.CurrentTime()
	p, ok := s.ctrl.Preset()
	if !ok {
		p = s.active.Load()
	}
	return Frame{
		Seq:           s.seq,
		SessionID:     s.id,
		TimestampMs:   now.UnixMilli(),
		Elapsed:       elapsed,
		Preset:        p,
		Playing:       s.playing,
		Position:      pos,
		Levels:        levelsOf(s.features),
		Beat:          s.beat,
		GroupRotation: snap.GroupRotation,
		Lighting:      snap.Lighting,
		Meshes:        meshes,
	}
}

// refreshStatus publishes a new Status for readers on other goroutines.
func (s *Session) refreshStatus() {
	st := Status{
		SessionID: s.id,
		Preset:    s.active.Load().Name,
		Levels:    levelsOf(s.features),
		Beat:      s.beat,
		Frames:    s.seq,
	}
	if ts, err := s.engine.Transport(); err == nil {
		st.State = ts.State
		st.Position = ts.PositionSeconds
	}
	st.Duration, _ = s.engine.Duration()
	st.Volume, _ = s.engine.Volume()
	if meta, err := s.engine.Metadata(); err == nil {
		st.Asset = &meta
	}
	s.status.Store(&st)
}

// String describes the session for logs.
func (s *Session) String() string {
	return fmt.Sprintf("session %s", s.id)
}
