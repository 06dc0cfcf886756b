package report

import "github.com/charmbracelet/lipgloss"

// Color palette shared by the console output.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // primary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // passed
	amber       = lipgloss.Color("#FCD34D") // broken and skipped
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	passedStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	brokenStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	tagStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)
)
