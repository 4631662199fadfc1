// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package hostui

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is the panel's color palette, in ANSI 256-color codes.
type Theme struct {
	Title      lipgloss.Color
	Running    lipgloss.Color
	NotRunning lipgloss.Color
	Label      lipgloss.Color
	FaintText  lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Title:      lipgloss.Color("39"),
	Running:    lipgloss.Color("42"),
	NotRunning: lipgloss.Color("203"),
	Label:      lipgloss.Color("245"),
	FaintText:  lipgloss.Color("240"),
	Warning:    lipgloss.Color("214"),
	Error:      lipgloss.Color("196"),
	Border:     lipgloss.Color("238"),
}

// NewRenderer returns a lipgloss renderer for output with a fixed
// color profile. termenv.Ascii renders plain text.
func NewRenderer(output io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return renderer
}

// styles is the theme bound to a renderer.
type styles struct {
	title      lipgloss.Style
	running    lipgloss.Style
	notRunning lipgloss.Style
	label      lipgloss.Style
	faint      lipgloss.Style
	warning    lipgloss.Style
	error      lipgloss.Style
	panel      lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer, theme Theme) styles {
	return styles{
		title:      renderer.NewStyle().Bold(true).Foreground(theme.Title),
		running:    renderer.NewStyle().Bold(true).Foreground(theme.Running),
		notRunning: renderer.NewStyle().Bold(true).Foreground(theme.NotRunning),
		label:      renderer.NewStyle().Foreground(theme.Label),
		faint:      renderer.NewStyle().Foreground(theme.FaintText),
		warning:    renderer.NewStyle().Foreground(theme.Warning),
		error:      renderer.NewStyle().Foreground(theme.Error),
		panel: renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
	}
}

// levelStyle picks the status line style for a log level.
func (s styles) levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return s.error
	case level >= slog.LevelWarn:
		return s.warning
	default:
		return s.faint
	}
}
