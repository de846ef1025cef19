// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"audiovis/internal/audio"
	"audiovis/internal/config"
	"audiovis/internal/preset"
	"audiovis/internal/session"
	"audiovis/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 8000

// fakeController runs jobs inline against a headless engine.
type fakeController struct {
	mu      sync.Mutex
	engine  *audio.Engine
	preset  string
	jobs    int
	failSet error
}

func newFakeController(t *testing.T) *fakeController {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.FFTSize = 256
	e := audio.NewEngine(cfg.Analysis, cfg.Beat, audio.NullHost{}, audio.WithFramesPerBuffer(64))
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Dispose() })

	wav, err := utils.WAVBytes(testRate, utils.GenerateSineWave(20*testRate, testRate, 250, 0.5))
	require.NoError(t, err)
	_, err = e.LoadAsset(context.Background(), audio.BytesSource{Name: "Loop.wav", Data: wav})
	require.NoError(t, err)
	return &fakeController{engine: e, preset: "Default"}
}

func (f *fakeController) Do(_ context.Context, fn func(*audio.Engine) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs++
	return fn(f.engine)
}

func (f *fakeController) Status() session.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := session.Status{Preset: f.preset}
	ts, _ := f.engine.Transport()
	st.State, st.Position = ts.State, ts.PositionSeconds
	st.Duration, _ = f.engine.Duration()
	st.Volume, _ = f.engine.Volume()
	if meta, err := f.engine.Metadata(); err == nil {
		st.Asset = &meta
	}
	return st
}

func (f *fakeController) SetPreset(p preset.Preset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.preset = p.Name
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to m and runs the resulting command once.
func press(t *testing.T, m PlayerModel, msg tea.Msg) PlayerModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(PlayerModel)
	if cmd != nil {
		next, _ = m.Update(cmd())
		m = next.(PlayerModel)
	}
	return m
}

func TestKeysDriveTransport(t *testing.T) {
	ctrl := newFakeController(t)
	m := NewPlayerModel(ctrl, preset.Builtins())
	require.Equal(t, audio.Stopped, m.status.State)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, audio.Playing, m.status.State)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, audio.Paused, m.status.State)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.InDelta(t, 10, m.status.Position, 0.1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.InDelta(t, 5, m.status.Position, 0.1)

	m = press(t, m, runes("s"))
	assert.Equal(t, audio.Stopped, m.status.State)
	assert.Zero(t, m.status.Position)
	assert.NoError(t, m.err)
	assert.Equal(t, 6, ctrl.jobs)
}

func TestVolumeKeysClamp(t *testing.T) {
	ctrl := newFakeController(t)
	m := NewPlayerModel(ctrl, nil)

	m = press(t, m, runes("+"))
	assert.Equal(t, 1.0, m.status.Volume, "volume starts at full scale")

	for range 3 {
		m = press(t, m, runes("-"))
	}
	assert.InDelta(t, 0.7, m.status.Volume, 1e-9)

	for range 10 {
		m = press(t, m, runes("-"))
	}
	assert.Zero(t, m.status.Volume)
}

func TestNextPresetCycles(t *testing.T) {
	ctrl := newFakeController(t)
	m := NewPlayerModel(ctrl, preset.Builtins())

	var seen []string
	for range len(preset.Builtins()) {
		m = press(t, m, runes("p"))
		seen = append(seen, m.status.Preset)
	}
	assert.Equal(t, []string{"Electronic", "Ambient", "Heavy", "Wave", "Default"}, seen)
	assert.Equal(t, "Default", ctrl.preset)

	ctrl.failSet = errors.New("rejected")
	m = press(t, m, runes("p"))
	assert.EqualError(t, m.err, "rejected")
}

func TestCommandErrorsAreShown(t *testing.T) {
	ctrl := newFakeController(t)
	require.NoError(t, ctrl.engine.Dispose())
	m := NewPlayerModel(ctrl, nil)

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.ErrorIs(t, m.err, audio.ErrDisposed)
	assert.Contains(t, m.View(), "error: ")
}

func TestQuit(t *testing.T) {
	m := NewPlayerModel(newFakeController(t), nil)
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := m.Update(msg)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestRefreshPollsStatus(t *testing.T) {
	ctrl := newFakeController(t)
	m := NewPlayerModel(ctrl, nil)
	require.NoError(t, ctrl.engine.Seek(3))

	next, cmd := m.Update(refreshMsg{})
	m = next.(PlayerModel)
	assert.NotNil(t, cmd, "refresh re-arms itself")
	assert.Equal(t, audio.Paused, m.status.State)
	assert.InDelta(t, 3, m.status.Position, 1e-9)
}

func TestView(t *testing.T) {
	ctrl := newFakeController(t)
	m := NewPlayerModel(ctrl, nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(PlayerModel)
	m.status.Levels = session.Levels{Bass: 255, Mid: 127.5, Treble: 0}
	m.status.Beat.BPM = 128
	m.status.Beat.Confidence = 0.5

	view := m.View()
	for _, want := range []string{"Loop", "stopped", "0:00 / 0:20", "bass", "treble", "128.0 bpm", "confidence 50%", "Default"} {
		assert.Contains(t, view, want)
	}
	assert.Equal(t, 80, m.bar.Width)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "0:00", clock(-1))
	assert.Equal(t, "1:05", clock(65.9))
	assert.Equal(t, "61:01", clock(3661))

	full := meter("bass", 300)
	assert.Equal(t, meterWidth, strings.Count(full, "█"))
	empty := meter("mid", -4)
	assert.Equal(t, meterWidth, strings.Count(empty, "░"))
	half := meter("treble", 127.5)
	assert.Equal(t, meterWidth/2, strings.Count(half, "█"))
}
