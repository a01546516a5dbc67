package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/wedplan/internal/insight"
	"github.com/existflow/wedplan/internal/model"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ECDC4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Strikethrough(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	priorityStyles = map[model.Priority]lipgloss.Style{
		model.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		model.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Bold(true),
		model.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D")),
		model.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECDC4")),
	}
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func priorityLabel(p model.Priority) string {
	style, ok := priorityStyles[p]
	if !ok {
		return string(p)
	}
	return style.Render(fmt.Sprintf("%-6s", p))
}

func printTask(w io.Writer, t model.Task, now time.Time) {
	icon := "[ ]"
	title := truncate(t.Title, 40)
	if t.Completed {
		icon = "[x]"
		title = doneStyle.Render(fmt.Sprintf("%-40s", title))
	} else {
		title = fmt.Sprintf("%-40s", title)
	}

	due := ""
	if t.DueDate != nil {
		due = t.DueDate.Time().Format("Jan 2 2006")
		if t.IsOverdue(now) {
			due = overdueStyle.Render(due)
		}
	}

	star := " "
	if t.IsImportant {
		star = "★"
	}

	fmt.Fprintf(w, "  %s %s %s  %s  %s  %s\n", icon, star, shortID(t.ID), title, priorityLabel(t.Priority), due)
}

func printCategoryHeader(w io.Writer, c model.Category, p insight.Progress) {
	fmt.Fprintf(w, "\n%s %s %s\n", c.Icon, headingStyle.Render(c.Name),
		mutedStyle.Render(fmt.Sprintf("(%d/%d, %d%%)", p.Completed, p.Total, p.Percent())))
	fmt.Fprintln(w, mutedStyle.Render(strings.Repeat("─", 60)))
}

func printDigest(w io.Writer, d insight.Digest) {
	if d.Total() == 0 {
		return
	}
	fmt.Fprintf(w, "%s %d important, %d due today, %d overdue\n",
		headingStyle.Render("🔔"), d.Important, d.DueToday, d.Overdue)
}
