// Package tui is the terminal gallery view of laisky-gallery-search.
// It uses the Charm Bubble Tea framework to render a searchable photo grid.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Violet
	secondaryColor = lipgloss.Color("#10B981") // Emerald
	accentColor    = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red

	fgColor     = lipgloss.Color("#CDD6F4")
	mutedColor  = lipgloss.Color("#6C7086")
	borderColor = lipgloss.Color("#45475A")
	selectedBg  = lipgloss.Color("#313244")
	highlightBg = lipgloss.Color("#45475A")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(fgColor).
	Background(primaryColor).
	Padding(0, 2)

var subtitleStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Italic(true)

var inputLabelStyle = lipgloss.NewStyle().
	Foreground(secondaryColor).
	Bold(true)

// cellStyle is an unselected grid cell, width is set per render.
var cellStyle = lipgloss.NewStyle().
	Foreground(fgColor).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(borderColor).
	Padding(0, 1)

var selectedCellStyle = cellStyle.
	BorderForeground(secondaryColor).
	Background(selectedBg).
	Bold(true)

var cellMetaStyle = lipgloss.NewStyle().
	Foreground(mutedColor)

var helpStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	MarginTop(1)

var errorBannerStyle = lipgloss.NewStyle().
	Foreground(errorColor).
	Bold(true).
	Border(lipgloss.NormalBorder()).
	BorderForeground(errorColor).
	Padding(0, 1)

var progressStyle = lipgloss.NewStyle().
	Foreground(accentColor)

var statusBarStyle = lipgloss.NewStyle().
	Foreground(mutedColor).
	Background(highlightBg).
	Padding(0, 1)

// GetHeaderStyle returns the header style
func GetHeaderStyle() lipgloss.Style {
	return headerStyle
}

// GetSubtitleStyle returns the subtitle style
func GetSubtitleStyle() lipgloss.Style {
	return subtitleStyle
}

// GetInputLabelStyle returns the input label style
func GetInputLabelStyle() lipgloss.Style {
	return inputLabelStyle
}

// GetHelpStyle returns the help style
func GetHelpStyle() lipgloss.Style {
	return helpStyle
}

// GetErrorBannerStyle returns the style of the search error banner
func GetErrorBannerStyle() lipgloss.Style {
	return errorBannerStyle
}

// GetProgressStyle returns the progress style
func GetProgressStyle() lipgloss.Style {
	return progressStyle
}

// GetStatusBarStyle returns the status bar style
func GetStatusBarStyle() lipgloss.Style {
	return statusBarStyle
}

// GetCellStyle returns the grid cell style, selected or not
func GetCellStyle(selected bool) lipgloss.Style {
	if selected {
		return selectedCellStyle
	}
	return cellStyle
}

// GetCellMetaStyle returns the style of the secondary line in a cell
func GetCellMetaStyle() lipgloss.Style {
	return cellMetaStyle
}
