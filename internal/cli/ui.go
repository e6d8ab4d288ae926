package cli

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions, selection
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, edge preview
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text like key hints.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleSuccess for confirmation messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warnings in the status bar.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleNode         = lipgloss.NewStyle().Foreground(colorWhite)
	styleNodeSelected = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleSubtitle     = lipgloss.NewStyle().Foreground(colorGray)
	styleEdge         = lipgloss.NewStyle().Foreground(colorDim)
	styleEdgeSelected = lipgloss.NewStyle().Foreground(colorCyan)
	stylePreview      = lipgloss.NewStyle().Foreground(colorYellow)
	stylePort         = lipgloss.NewStyle().Foreground(colorGray)
	styleStatus       = lipgloss.NewStyle().Foreground(colorGray)
)
