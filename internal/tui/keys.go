// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause  key.Binding
	Stop       key.Binding
	Back       key.Binding
	Forward    key.Binding
	VolumeUp   key.Binding
	VolumeDown key.Binding
	NextPreset key.Binding
	Quit       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		PlayPause:  key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "play/pause")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Back:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "-5s")),
		Forward:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "+5s")),
		VolumeUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		VolumeDown: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "vol down")),
		NextPreset: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "next preset")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Stop, k.Back, k.Forward, k.VolumeDown, k.VolumeUp, k.NextPreset, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Stop, k.Back, k.Forward},
		{k.VolumeDown, k.VolumeUp, k.NextPreset, k.Quit},
	}
}
