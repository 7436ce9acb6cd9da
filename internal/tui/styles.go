package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Colors
var (
	primaryColor   = lipgloss.Color("#2563EB") // Court blue
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Background(primaryColor).
			Padding(0, 2).
			MarginBottom(1)

	// Screen tabs
	tabBarStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginBottom(1)
	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(primaryColor)
	tabStyle = lipgloss.NewStyle().Foreground(mutedColor)

	// Summary cards
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	metricLabelStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Width(22)

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(textColor)

	// Point and run tables
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor).
				BorderBottom(true).
				BorderForeground(mutedColor).
				Padding(0, 1)

	tableRowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	tableSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Background(primaryColor).
				Foreground(textColor).
				Padding(0, 1)

	noDataStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Padding(0, 1)

	statusStyle   = lipgloss.NewStyle().Foreground(mutedColor).MarginTop(1)
	errorStyle    = lipgloss.NewStyle().Foreground(errorColor)
	successStyle  = lipgloss.NewStyle().Foreground(secondaryColor)
	helpKeyStyle  = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)
	helpDescStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// RenderMetric renders a metric with label and value
func RenderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Left,
		metricLabelStyle.Render(label),
		metricValueStyle.Render(value),
	)
}

// RenderKeyHelp renders a key binding help item
func RenderKeyHelp(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}

// formatValue renders an optional metric with thousands separators, "-" when absent
func formatValue(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return formatFloat(*v) + unit
}

func formatFloat(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}
