package tui

import "github.com/charmbracelet/lipgloss"

// Exported constants.
const (
	// DefaultPadding is the default padding for UI elements
	DefaultPadding = 2
	// ProgressBarWidth is the default width of progress bars
	ProgressBarWidth = 40
	// MaxRecentFiles is how many recently finished files the list shows
	MaxRecentFiles = 8
	// KeyCtrlC is the key binding for cancellation
	KeyCtrlC = "ctrl+c"
)

// PrimaryColor returns the primary color for the UI
func PrimaryColor() lipgloss.Color { return lipgloss.Color(primaryColorCode) }

func AccentColor() lipgloss.Color { return lipgloss.Color(accentColorCode) }

func DimColor() lipgloss.Color { return lipgloss.Color(dimColorCode) }

func ErrorColor() lipgloss.Color { return lipgloss.Color(errorColorCode) }

func SuccessColor() lipgloss.Color { return lipgloss.Color(successColorCode) }

func WarningColor() lipgloss.Color { return lipgloss.Color(warningColorCode) }

// TitleStyle returns the style for titles
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor()).
		MarginBottom(1)
}

// BoxStyle returns the style for boxes with padding
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor()).
		Padding(1, DefaultPadding)
}

// DimStyle returns the style for dimmed text
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(DimColor())
}

// ErrorStyle returns the style for error messages
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(ErrorColor()).
		Bold(true)
}

// SuccessStyle returns the style for success messages
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(SuccessColor()).
		Bold(true)
}

// WarningStyle returns the style for warning messages
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(WarningColor()).
		Bold(true)
}

// unexported constants.
const (
	accentColorCode  = "62"  // Blue
	dimColorCode     = "240" // Dark gray
	errorColorCode   = "196" // Red
	primaryColorCode = "205" // Pink/purple
	successColorCode = "42"  // Green
	warningColorCode = "226"
)
