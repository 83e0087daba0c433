package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/nodecfg/internal/version"
)

// AppName is shown in the dashboard header
const AppName = "NODECFG DASHBOARD"

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF5555") // Red
	TextColor      = lipgloss.Color("#FFFFFF") // White
	SubtleColor    = lipgloss.Color("#626262") // Gray
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	SectionTitleStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true).
				MarginTop(1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(14)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	OnStyle = lipgloss.NewStyle().
		Foreground(SecondaryColor).
		Bold(true)

	OffStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	StatusOKStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			MarginTop(1)
)

// Markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	WarningMarker = "⚠"
)

// ContainerStyle returns the border around the whole dashboard
func ContainerStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Width(width - 2)
}

// ModalStyle returns the box style for modals; border is the accent color
func ModalStyle(border lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(56)
}

// EditorStyle returns the style of the inline routes editor
func EditorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.Border{
			Top:    "━",
			Bottom: "━",
			Left:   "┃",
			Right:  "┃",
		}).
		BorderForeground(PrimaryColor).
		Padding(0, 1)
}

// ContentWidth clamps a terminal width into the supported range
func ContentWidth(terminalWidth int) int {
	if terminalWidth < MinTerminalWidth {
		return MinTerminalWidth
	}
	if terminalWidth > MaxContentWidth {
		return MaxContentWidth
	}
	return terminalWidth
}

// RenderModal centers modal content over a dimmed background
func RenderModal(modalContent string, terminalWidth int, terminalHeight int) string {
	if terminalWidth == 0 || terminalHeight == 0 {
		return modalContent
	}
	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Center,
		lipgloss.Center,
		modalContent,
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}
