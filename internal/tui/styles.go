package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Base styles for scribe TUI components
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleSubtle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Italic(true)

	StyleTimestamp = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	StyleSpeaker = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

const logoASCII = `
               _ _
  ___  ___ _ _(_) |__   ___
 / __|/ __| '__| | '_ \ / _ \
 \__ \ (__| |  | | |_) |  __/
 |___/\___|_|  |_|_.__/ \___|`

// Logo returns the scribe ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
