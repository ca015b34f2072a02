// Package ui implements the terminal surface for Lumina: the chat,
// imagine and dashboard views. It renders exclusively from core
// snapshots; all conversation state lives in the chat package.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette mirroring the zinc/blue scheme of the web client.
var (
	ColorPrimary = lipgloss.Color("#3b82f6") // blue
	ColorImagine = lipgloss.Color("#8b5cf6") // purple
	ColorText    = lipgloss.Color("#f4f4f5")
	ColorMuted   = lipgloss.Color("#71717a")
	ColorFaint   = lipgloss.Color("#52525b")
	ColorBorder  = lipgloss.Color("#27272a")
	ColorError   = lipgloss.Color("#e53935")
)

// Styles holds the lipgloss styles shared across views.
type Styles struct {
	Title      lipgloss.Style
	TabActive  lipgloss.Style
	TabIdle    lipgloss.Style
	UserLabel  lipgloss.Style
	ModelLabel lipgloss.Style
	Muted      lipgloss.Style
	Faint      lipgloss.Style
	Chip       lipgloss.Style
	InputBox   lipgloss.Style
	StatCard   lipgloss.Style
	BarTokens  lipgloss.Style
	BarImages  lipgloss.Style
	Error      lipgloss.Style
}

// DefaultStyles returns the standard dark theme.
func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(ColorText),
		TabActive:  lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		TabIdle:    lipgloss.NewStyle().Foreground(ColorMuted),
		UserLabel:  lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
		ModelLabel: lipgloss.NewStyle().Bold(true).Foreground(ColorText),
		Muted:      lipgloss.NewStyle().Foreground(ColorMuted),
		Faint:      lipgloss.NewStyle().Foreground(ColorFaint),
		Chip: lipgloss.NewStyle().
			Foreground(ColorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),
		StatCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 2),
		BarTokens: lipgloss.NewStyle().Foreground(ColorPrimary),
		BarImages: lipgloss.NewStyle().Foreground(ColorImagine),
		Error:     lipgloss.NewStyle().Foreground(ColorError),
	}
}
