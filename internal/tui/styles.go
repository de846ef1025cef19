// SPDX-License-Identifier: MIT
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#8B5CF6")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#06B6D4")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	meterStyles = map[string]lipgloss.Style{
		"bass":   lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5CF6")),
		"mid":    lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		"treble": lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		"level":  lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
	}
)
