// Package ui renders counting results for a terminal.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var currentTheme = DefaultTheme()

// GetTheme returns the active theme.
func GetTheme() Theme {
	return currentTheme
}

// Theme is the color scheme used for rendering, with adaptive colors for
// light and dark terminals. Tokens cycle through the Tokens palette so that
// adjacent tokens never share a background.
type Theme struct {
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	VeryMuted lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Tokens    []lipgloss.AdaptiveColor
}

// DefaultTheme returns a theme based on the Catppuccin Mocha (dark) and
// Latte (light) palettes.
func DefaultTheme() Theme {
	return Theme{
		Primary: lipgloss.AdaptiveColor{
			Light: "#8839ef", // Latte Mauve
			Dark:  "#cba6f7", // Mocha Mauve
		},
		Secondary: lipgloss.AdaptiveColor{
			Light: "#04a5e5", // Latte Sky
			Dark:  "#89dceb", // Mocha Sky
		},
		Success: lipgloss.AdaptiveColor{
			Light: "#40a02b", // Latte Green
			Dark:  "#a6e3a1", // Mocha Green
		},
		Error: lipgloss.AdaptiveColor{
			Light: "#d20f39", // Latte Red
			Dark:  "#f38ba8", // Mocha Red
		},
		Text: lipgloss.AdaptiveColor{
			Light: "#4c4f69", // Latte Text
			Dark:  "#cdd6f4", // Mocha Text
		},
		Muted: lipgloss.AdaptiveColor{
			Light: "#6c6f85", // Latte Subtext 0
			Dark:  "#a6adc8", // Mocha Subtext 0
		},
		VeryMuted: lipgloss.AdaptiveColor{
			Light: "#9ca0b0", // Latte Overlay 0
			Dark:  "#6c7086", // Mocha Overlay 0
		},
		Border: lipgloss.AdaptiveColor{
			Light: "#acb0be", // Latte Surface 2
			Dark:  "#585b70", // Mocha Surface 2
		},
		Tokens: []lipgloss.AdaptiveColor{
			{Light: "#dce0e8", Dark: "#45475a"}, // Crust / Surface 1
			{Light: "#f2d5cf", Dark: "#59424a"}, // Rosewater
			{Light: "#d6e6c9", Dark: "#3e5245"}, // Green
			{Light: "#cfdcf5", Dark: "#3b4a6b"}, // Blue
			{Light: "#f6e3c1", Dark: "#5c513c"}, // Yellow
			{Light: "#e7d4f7", Dark: "#4f3f66"}, // Mauve
		},
	}
}

// TokenColor returns the background color for the token at index i.
func (t Theme) TokenColor(i int) lipgloss.AdaptiveColor {
	if len(t.Tokens) == 0 {
		return t.Border
	}
	return t.Tokens[i%len(t.Tokens)]
}

// StyleHeader creates a bold style in the primary color for headers.
func StyleHeader(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)
}

// StyleSubheader creates a bold style in the secondary color.
func StyleSubheader(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true)
}

// StyleMuted creates an italic style for de-emphasized text.
func StyleMuted(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Muted).
		Italic(true)
}

// StyleError creates a bold red style for failures.
func StyleError(theme Theme) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true)
}

// CreateSeparator generates a horizontal line of char with the given width
// and color.
func CreateSeparator(width int, char string, color lipgloss.AdaptiveColor) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(color).
		Render(strings.Repeat(char, width))
}

// CreateBadge generates a label with inverted colors, text on a colored
// background.
func CreateBadge(text string, color lipgloss.AdaptiveColor) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}).
		Background(color).
		Padding(0, 1).
		Bold(true).
		Render(text)
}
