package app

import "github.com/charmbracelet/lipgloss"

// Theme colors (Catppuccin Mocha inspired).
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	colorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	colorSuccess   = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	colorWarning   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	colorError     = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	colorMuted     = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
)

// styles are the lipgloss styles of plan and report output.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style

	Applied lipgloss.Style
	Skipped lipgloss.Style
	Failed  lipgloss.Style
	Pending lipgloss.Style
	Unknown lipgloss.Style

	Muted  lipgloss.Style
	Reason lipgloss.Style

	DiffAdd    lipgloss.Style
	DiffRemove lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary),

		Heading: lipgloss.NewStyle().
			Foreground(colorSecondary),

		Applied: lipgloss.NewStyle().
			Foreground(colorSuccess),

		Skipped: lipgloss.NewStyle().
			Foreground(colorMuted),

		Failed: lipgloss.NewStyle().
			Bold(true).
			Foreground(colorError),

		Pending: lipgloss.NewStyle().
			Foreground(colorPrimary),

		Unknown: lipgloss.NewStyle().
			Foreground(colorWarning),

		Muted: lipgloss.NewStyle().
			Foreground(colorMuted),

		Reason: lipgloss.NewStyle().
			Foreground(colorWarning),

		DiffAdd: lipgloss.NewStyle().
			Foreground(colorSuccess),

		DiffRemove: lipgloss.NewStyle().
			Foreground(colorError),
	}
}
