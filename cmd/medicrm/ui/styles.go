// Package ui provides the visual styling and small widgets for the
// medicrm terminal client.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette for the clinic client. Semantic colors are shared between
// light and dark terminals.
var (
	ColorPrimary = lipgloss.Color("#2196F3") // blue
	ColorAccent  = lipgloss.Color("#4db6ac") // teal
	ColorMuted   = lipgloss.Color("#8a8f98")
	ColorDanger  = lipgloss.Color("#e53935")
	ColorSuccess = lipgloss.Color("#8BC34A")
	ColorWarning = lipgloss.Color("#FFC107")
)

// Styles holds the styled components used by the application views.
type Styles struct {
	Header   lipgloss.Style
	TabOn    lipgloss.Style
	TabOff   lipgloss.Style
	Title    lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Badge    lipgloss.Style
	Selected lipgloss.Style
	Divider  lipgloss.Style
	MsgMine  lipgloss.Style
	MsgTheir lipgloss.Style
}

// NewStyles builds the default style set.
func NewStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		TabOn: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true).
			Underline(true).
			Padding(0, 1),
		TabOff: lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
		Body:  lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().Foreground(ColorMuted),
		Bold:  lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),
		Error: lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),
		Badge: lipgloss.NewStyle().
			Background(ColorAccent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Background(ColorPrimary).
			Foreground(lipgloss.Color("#ffffff")),
		Divider: lipgloss.NewStyle().
			Foreground(ColorMuted),
		MsgMine: lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true),
		MsgTheir: lipgloss.NewStyle().
			Foreground(ColorAccent),
	}
}
