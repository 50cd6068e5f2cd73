package report

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5d5d5d")).
			PaddingLeft(1).
			PaddingRight(1)

	cellStyle = lipgloss.NewStyle().
			PaddingLeft(1).
			PaddingRight(1)

	rankStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#878787"))

	lineStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#878787"))

	ruleStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#ffd700"))

	errorStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#ff0000"))

	warningStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#ffff00"))

	infoStyle = cellStyle.Copy().
			Foreground(lipgloss.Color("#5fafff"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)
)
