package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/wedplan/internal/model"
)

// Color palette
var (
	// Priority colors
	PriorityUrgent = lipgloss.Color("#FF6B6B")
	PriorityHigh   = lipgloss.Color("#FFB347")
	PriorityMedium = lipgloss.Color("#FFE66D")
	PriorityLow    = lipgloss.Color("#4ECDC4")

	// Status colors
	Completed = lipgloss.Color("#95E1A3")
	Overdue   = lipgloss.Color("#FF6B6B")
	Important = lipgloss.Color("#F78FB3")

	// UI colors
	Primary   = lipgloss.Color("#F78FB3")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Highlight = lipgloss.Color("#4ECDC4")
	ErrorText = lipgloss.Color("#FF5555")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(Border)

	CountdownStyle = lipgloss.NewStyle().
			Foreground(Highlight).
			Bold(true)

	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	// Task list
	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Category item
	CategoryItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	CategoryItemSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(Surface).
					Bold(true)

	// Task item
	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	OverdueStyle   = lipgloss.NewStyle().Foreground(Overdue)
	ImportantStyle = lipgloss.NewStyle().Foreground(Important).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ErrorText)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

var priorityStyles = map[model.Priority]lipgloss.Style{
	model.PriorityUrgent: lipgloss.NewStyle().Foreground(PriorityUrgent).Bold(true),
	model.PriorityHigh:   lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true),
	model.PriorityMedium: lipgloss.NewStyle().Foreground(PriorityMedium),
	model.PriorityLow:    lipgloss.NewStyle().Foreground(PriorityLow),
}

// FormatPriority returns a padded, colored priority label
func FormatPriority(p model.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		style = HelpStyle
	}
	return style.Render(padRight(string(p), 6))
}
