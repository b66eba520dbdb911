package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Teal     = lipgloss.Color("#0d7377")
	OffWhite = lipgloss.Color("#f8f7f4")
	Gray     = lipgloss.Color("#777777")
	Green    = lipgloss.Color("#3fb950")
	Red      = lipgloss.Color("#f85149")

	TitleStyle = lipgloss.NewStyle().
			Foreground(OffWhite).
			Background(Teal).
			Bold(true).
			Padding(0, 1)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal)

	ButtonStyle = lipgloss.NewStyle().
			Foreground(OffWhite).
			Background(Teal).
			Padding(0, 3)

	FocusedButtonStyle = ButtonStyle.
				Underline(true).
				Bold(true)

	DisabledButtonStyle = lipgloss.NewStyle().
				Foreground(Gray).
				Padding(0, 3).
				Strikethrough(true)

	ResultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Gray).
			Padding(0, 1)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(Gray).
				Italic(true)

	ReadyStyle    = lipgloss.NewStyle().Foreground(Green)
	NotReadyStyle = lipgloss.NewStyle().Foreground(Red)
)
