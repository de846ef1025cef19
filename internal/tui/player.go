// SPDX-License-Identifier: MIT

// Package tui is the terminal monitor for a running session.
package tui

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"audiovis/internal/audio"
	applog "audiovis/internal/log"
	"audiovis/internal/preset"
	"audiovis/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	refreshInterval = time.Second / 15
	seekStep        = 5.0
	volumeStep      = 0.1
	meterWidth      = 32
	minBarWidth     = 20
)

// Controller is the part of a session the monitor drives.
type Controller interface {
	Do(ctx context.Context, fn func(*audio.Engine) error) error
	Status() session.Status
	SetPreset(p preset.Preset) error
}

type refreshMsg time.Time

// commandMsg reports the outcome of a transport command.
type commandMsg struct {
	err error
}

// PlayerModel is the Bubble Tea model for the player monitor.
type PlayerModel struct {
	ctrl    Controller
	presets []preset.Preset
	status  session.Status
	keys    keyMap
	help    help.Model
	bar     progress.Model
	width   int
	err     error
}

// NewPlayerModel returns a monitor over ctrl that cycles through presets.
func NewPlayerModel(ctrl Controller, presets []preset.Preset) PlayerModel {
	return PlayerModel{
		ctrl:    ctrl,
		presets: presets,
		status:  ctrl.Status(),
		keys:    defaultKeys(),
		help:    help.New(),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

// Init starts the refresh ticker.
func (m PlayerModel) Init() tea.Cmd {
	return refresh()
}

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// do runs fn on the session loop outside the UI goroutine.
func (m PlayerModel) do(fn func(*audio.Engine) error) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return commandMsg{err: ctrl.Do(context.Background(), fn)}
	}
}

func togglePlay(e *audio.Engine) error {
	playing, err := e.IsPlaying()
	if err != nil {
		return err
	}
	if playing {
		return e.Pause()
	}
	return e.Play(0)
}

func seekBy(delta float64) func(*audio.Engine) error {
	return func(e *audio.Engine) error {
		t, err := e.CurrentTime()
		if err != nil {
			return err
		}
		return e.Seek(t + delta)
	}
}

func volumeBy(delta float64) func(*audio.Engine) error {
	return func(e *audio.Engine) error {
		v, err := e.Volume()
		if err != nil {
			return err
		}
		return e.SetVolume(v + delta)
	}
}

// Update handles input and refreshes.
func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = max(msg.Width-20, minBarWidth)

	case refreshMsg:
		m.status = m.ctrl.Status()
		return m, refresh()

	case commandMsg:
		m.err = msg.err
		m.status = m.ctrl.Status()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.PlayPause):
			return m, m.do(togglePlay)
		case key.Matches(msg, m.keys.Stop):
			return m, m.do((*audio.Engine).Stop)
		case key.Matches(msg, m.keys.Back):
			return m, m.do(seekBy(-seekStep))
		case key.Matches(msg, m.keys.Forward):
			return m, m.do(seekBy(seekStep))
		case key.Matches(msg, m.keys.VolumeUp):
			return m, m.do(volumeBy(volumeStep))
		case key.Matches(msg, m.keys.VolumeDown):
			return m, m.do(volumeBy(-volumeStep))
		case key.Matches(msg, m.keys.NextPreset):
			if next, ok := preset.Next(m.presets, m.status.Preset); ok {
				if m.err = m.ctrl.SetPreset(next); m.err == nil {
					m.status.Preset = next.Name
				}
			}
		}
	}
	return m, nil
}

// View renders the monitor.
func (m PlayerModel) View() string {
	st := m.status
	var sb strings.Builder

	title := "No track loaded"
	if st.Asset != nil {
		title = st.Asset.Title
		if st.Asset.Artist != "" {
			title = st.Asset.Artist + " - " + title
		}
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "%s  %s / %s  vol %3.0f%%  preset %s\n",
		highlightStyle.Render(stateLabel(st.State)),
		clock(st.Position), clock(st.Duration),
		st.Volume*100, highlightStyle.Render(st.Preset))

	frac := 0.0
	if st.Duration > 0 {
		frac = min(max(st.Position/st.Duration, 0), 1)
	}
	sb.WriteString(m.bar.ViewAs(frac))
	sb.WriteString("\n\n")

	sb.WriteString(meter("bass", st.Levels.Bass))
	sb.WriteString(meter("mid", st.Levels.Mid))
	sb.WriteString(meter("treble", st.Levels.Treble))
	sb.WriteString(meter("level", st.Levels.Average))
	sb.WriteString("\n")

	bpm := "--"
	if st.Beat.BPM > 0 {
		bpm = fmt.Sprintf("%.1f", st.Beat.BPM)
	}
	fmt.Fprintf(&sb, "%s %s bpm  confidence %.0f%%  frames %d\n",
		infoStyle.Render("tempo"), bpm, st.Beat.Confidence*100, st.Frames)

	if m.err != nil {
		sb.WriteString(errorStyle.Render("error: " + m.err.Error()))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func stateLabel(s audio.State) string {
	switch s {
	case audio.Playing:
		return "▶ playing"
	case audio.Paused:
		return "❚❚ paused"
	default:
		return "■ stopped"
	}
}

// clock formats seconds as m:ss.
func clock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// meter renders a byte-scale level as a horizontal bar.
func meter(label string, level float64) string {
	filled := int(math.Round(min(max(level, 0), 255) / 255 * meterWidth))
	bar := meterStyles[label].Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", meterWidth-filled))
	return fmt.Sprintf("%-7s %s %3.0f\n", label, bar, level)
}

// Run shows the monitor until the user quits or ctx is done. Log output is
// sent to logs for the duration so it does not tear the screen.
func Run(ctx context.Context, ctrl Controller, presets []preset.Preset, logs io.Writer) error {
	if logs == nil {
		logs = io.Discard
	}
	applog.SetOutput(logs)
	defer applog.SetOutput(os.Stderr)

	p := tea.NewProgram(
		NewPlayerModel(ctrl, presets),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
