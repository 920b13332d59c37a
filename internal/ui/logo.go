package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var logoArt = []string{
	` ___   _   _  _ _  _ ___ ___ ___  ___ ___ _  __`,
	`| _ ) /_\ | \| | \| | __| _ \   \| __/ __| |/ /`,
	"| _ \\/ _ \\| .` | .` | _||   / |) | _|\\__ \\ ' < ",
	`|___/_/ \_\_|\_|_|\_|___|_|_\___/|___|___/_|\_\`,
}

// RenderLogo returns the styled ASCII logo with its subtitle.
func RenderLogo() string {
	lines := splitLines(strings.Join(logoArt, "\n"))

	maxWidth := 0
	for _, line := range lines {
		if w := lipgloss.Width(line); w > maxWidth {
			maxWidth = w
		}
	}

	var rendered strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		rendered.WriteString(LogoStyle.Render(line) + "\n")
	}

	subtitleText := "Banner Administration • Command-Line Interface"
	subtitleWidth := lipgloss.Width(subtitleText)
	blockWidth := maxWidth
	if blockWidth < subtitleWidth {
		blockWidth = subtitleWidth
	}

	subtitle := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(subtitleText)

	underline := lipgloss.NewStyle().
		Foreground(ColorBorder).
		Width(blockWidth).
		Align(lipgloss.Center).
		Render(strings.Repeat("─", subtitleWidth))

	return "\n" + rendered.String() + "\n" + subtitle + "\n" + underline + "\n"
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
