// Package components renders reusable CLI widgets.
package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/lchelper/lchelper/internal/ui/theme"
)

// LoadBar shows how full a review day is.
type LoadBar struct {
	Label    string
	Count    int
	Capacity int
	Width    int // cells for the bar itself
}

// NewLoadBar creates a bar Width cells wide.
func NewLoadBar(label string, count, capacity, width int) LoadBar {
	return LoadBar{Label: label, Count: count, Capacity: capacity, Width: width}
}

// Filled returns how many cells are filled. A day over capacity fills the
// whole bar.
func (b LoadBar) Filled() int {
	width := b.barWidth()
	if b.Capacity <= 0 || b.Count <= 0 {
		return 0
	}
	filled := b.Count * width / b.Capacity
	if filled > width {
		filled = width
	}
	return filled
}

func (b LoadBar) barWidth() int {
	if b.Width < 4 {
		return 4
	}
	return b.Width
}

// View renders "label ███░░░ count/capacity".
func (b LoadBar) View() string {
	width := b.barWidth()
	filled := b.Filled()

	fill := theme.Secondary
	if b.Capacity > 0 && b.Count >= b.Capacity {
		fill = theme.Error
	}

	var sb strings.Builder
	if b.Label != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(b.Label))
		sb.WriteString("  ")
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)))
	sb.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", width-filled)))
	sb.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %d/%d", b.Count, b.Capacity)))
	return sb.String()
}
