// Package theme holds the terminal palette and styles used by the CLI.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#EAB308") // Amber
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Heading = lipgloss.NewStyle().
		Bold(true).
		Foreground(Secondary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(TextDim).
		Width(12)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 1)
)

// States
var (
	Due = lipgloss.NewStyle().
		Foreground(Accent).
		Bold(true)

	Overdue = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)

	Scheduled = lipgloss.NewStyle().
			Foreground(Success)

	Full = lipgloss.NewStyle().
		Foreground(Error)

	Shifted = lipgloss.NewStyle().
		Foreground(Warning).
		Italic(true)
)

// Difficulty colors a LeetCode difficulty label.
func Difficulty(d string) lipgloss.Style {
	switch d {
	case "Easy":
		return lipgloss.NewStyle().Foreground(Success)
	case "Hard":
		return lipgloss.NewStyle().Foreground(Error)
	default:
		return lipgloss.NewStyle().Foreground(Warning)
	}
}

// Status styles a review status.
func Status(s string) lipgloss.Style {
	switch s {
	case "due":
		return Due
	case "overdue":
		return Overdue
	case "scheduled":
		return Scheduled
	default:
		return Hint
	}
}
