// Package ui renders explainer results for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorCyan      = lipgloss.Color("87")  // Cyan for measures
	ColorBlue      = lipgloss.Color("75")  // Blue for evidence

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	StyleSectionTitle = lipgloss.NewStyle().
				Foreground(ColorPrimary).
				Bold(true).
				Underline(true)

	// Entity styles
	StyleConstruct = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	StyleMeasure   = lipgloss.NewStyle().Foreground(ColorCyan)
	StyleEvidence  = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleGap       = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	StyleIRI       = lipgloss.NewStyle().Foreground(ColorSecondary).Italic(true)
)

// Icon returns a styled icon string
func Icon(icon string, style lipgloss.Style) string {
	return style.Render(icon)
}
