package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorBar       = lipgloss.Color("32")  // Blue
)

// TitleStyle for the app name in the header.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// FieldLabel style for input labels.
var FieldLabel = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ButtonStyle for the search trigger.
var ButtonStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// ButtonFocused for the search trigger when it has focus.
var ButtonFocused = ButtonStyle.
	Background(colorPrimary).
	Bold(true)

// DisabledStyle for controls locked while a search runs.
var DisabledStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Background(lipgloss.Color("235")).
	Padding(0, 1)

// SortStyle for the sort selector.
var SortStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// SortFocused for the sort selector when it has focus.
var SortFocused = SortStyle.
	Foreground(colorHighlight).
	Bold(true)

// ArticleTitle style for result titles.
var ArticleTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// ArticleMeta style for the impact/citations/journal/year line.
var ArticleMeta = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ArticleBody style for authors and abstract.
var ArticleBody = lipgloss.NewStyle().
	Foreground(colorMuted)

// EmptyStyle for the no-results message.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// ChartTitle, ChartLabel and ChartBar style the trend chart.
var (
	ChartTitle = lipgloss.NewStyle().Bold(true).Foreground(colorHighlight)
	ChartLabel = lipgloss.NewStyle().Foreground(colorSecondary)
	ChartBar   = lipgloss.NewStyle().Foreground(colorBar)
)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying alerts.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// SpinnerStyle for the loading indicator.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// DebugPanel style for the debug overlay border.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
