package ui

import "github.com/charmbracelet/lipgloss"

const (
	green = lipgloss.Color("#1DB954")
	red   = lipgloss.Color("#E22134")
	amber = lipgloss.Color("#FFA42B")
	grey  = lipgloss.Color("#727272")
)

// theme names a style per role in the now-playing view.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	track lipgloss.Style
	dim   lipgloss.Style
}

var styles = newTheme(green, red, amber, grey)

func newTheme(accent, alert, caution, muted lipgloss.Color) theme {
	fg := lipgloss.NewStyle().Foreground
	return theme{
		title: fg(accent).Bold(true).MarginBottom(1),
		ok:    fg(accent).Bold(true),
		err:   fg(alert).Bold(true),
		warn:  fg(caution),
		help:  fg(muted).Italic(true),
		track: lipgloss.NewStyle().Bold(true),
		dim:   fg(muted),
	}
}
