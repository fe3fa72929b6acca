// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle renders the application name in help output.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22A8A0"))

	// SubtitleStyle renders section headers in help output.
	SubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))

	// headerStyle renders table column headers.
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	// labelStyle renders field labels in detail output.
	labelStyle = lipgloss.NewStyle().Bold(true)
)
