package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/filter"
	"github.com/existflow/wedplan/internal/insight"
	"github.com/existflow/wedplan/internal/model"
)

const sidebarWidth = 28

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	statusBar := m.renderStatusBar()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(statusBar)

	var body string
	switch m.mode {
	case ModeHelp:
		body = m.renderHelp()
	case ModeAddTask, ModeAddCategory:
		body = lipgloss.Place(
			m.width, bodyHeight,
			lipgloss.Center, lipgloss.Center,
			m.renderModal(),
			lipgloss.WithWhitespaceChars(" "),
		)
	default:
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderSidebar(bodyHeight), m.renderTaskList(bodyHeight))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, statusBar)
}

func (m Model) renderHeader() string {
	var who string
	var id *model.Identity
	if m.session != nil {
		id = m.session.Identity()
	}
	if id != nil {
		who = id.DisplayName()
	}

	left := "WedPlan"
	if who != "" {
		left += "  " + HelpStyle.Render(who)
	}

	var right string
	if id != nil && id.WeddingDate != nil {
		right = CountdownStyle.Render(insight.Until(*id.WeddingDate, m.now).String())
	} else {
		right = HelpStyle.Render("no wedding date set")
	}

	tasks := filter.Resolved(m.snap.Tasks, m.snap.Categories)
	overall := insight.Overall(tasks)
	right += HelpStyle.Render(fmt.Sprintf("  %d/%d done (%d%%)", overall.Completed, overall.Total, overall.Percent()))
	if d := insight.Summarize(tasks, m.now); d.Total() > 0 {
		right += "  " + ImportantStyle.Render(fmt.Sprintf("● %d", d.Total()))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return HeaderStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderSidebar(height int) string {
	var s string

	allStyle := CategoryItemStyle
	cursor := "  "
	if m.catCursor == 0 {
		cursor = "❯ "
		if m.pane == PaneSidebar {
			allStyle = CategoryItemSelectedStyle
		}
	}
	overall := insight.Overall(filter.Resolved(m.snap.Tasks, m.snap.Categories))
	s += allStyle.Render(fmt.Sprintf("%s%-14s %d/%d", cursor, "All", overall.Completed, overall.Total)) + "\n"

	for i, cp := range insight.ByCategory(m.snap.Tasks, m.snap.Categories) {
		cursor := "  "
		style := CategoryItemStyle
		if i+1 == m.catCursor {
			cursor = "❯ "
			if m.pane == PaneSidebar {
				style = CategoryItemSelectedStyle
			}
		}
		name := truncate(cp.Category.Icon+" "+cp.Category.Name, 14)
		line := fmt.Sprintf("%s%s %d/%d", cursor, padRight(name, 14), cp.Completed, cp.Total)
		s += style.Render(line) + "\n"
	}

	if len(m.snap.Categories) == 0 && !m.snap.Loading {
		s += "\n" + HelpStyle.Render("No categories")
	}
	s += "\n" + lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n"
	s += HelpStyle.Render("c new category")

	return SidebarStyle.Width(sidebarWidth).Height(max(height, 0)).Render(s)
}

func (m Model) renderTaskList(height int) string {
	width := m.width - sidebarWidth - 2
	var s string

	title := "All tasks"
	if cat := m.currentCategory(); cat != nil {
		title = cat.Icon + " " + cat.Name
	}
	tasks := m.visibleTasks()
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(fmt.Sprintf("%s (%d)", title, len(tasks)))
	s += "  " + HelpStyle.Render(m.filterSummary()) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 1))) + "\n\n"

	switch {
	case m.snap.Loading && len(m.snap.Tasks) == 0:
		s += HelpStyle.Render("  Loading...")
	case len(tasks) == 0:
		s += HelpStyle.Render("  No tasks. Press 'a' to add one.")
	}

	titleWidth := max(width-36, 10)
	for i, t := range tasks {
		s += m.renderTask(i, t, titleWidth) + "\n"
	}

	return TaskListStyle.Width(max(width, 0)).Height(max(height, 0)).Render(s)
}

func (m Model) renderTask(i int, t model.Task, titleWidth int) string {
	cursor := "  "
	style := TaskItemStyle
	if i == m.taskCursor && m.pane == PaneTaskList {
		cursor = "❯ "
		style = TaskItemSelectedStyle
	}

	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
		style = TaskDoneStyle
	}

	mark := " "
	if t.IsImportant {
		mark = ImportantStyle.Render("★")
	}

	due := ""
	if t.DueDate != nil {
		due = t.DueDate.String()
		if t.IsOverdue(m.now) {
			due = OverdueStyle.Render(due)
		}
	}

	check := style.Render(cursor + icon)
	desc := style.Render(" " + padRight(truncate(t.Title, titleWidth), titleWidth) + " ")
	return check + mark + desc + FormatPriority(t.Priority) + " " + due
}

func (m Model) filterSummary() string {
	parts := []string{
		"sort:" + string(m.opts.Sort),
		"priority:" + m.opts.Priority,
		"status:" + string(m.opts.Status),
	}
	if m.opts.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.opts.Search))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeSearch {
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View())
	}

	help := "a:add  x:done  d:del  /:search  s:sort  p:priority  f:status  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	var state string
	switch {
	case m.busy:
		state = "Saving..."
	case m.snap.Loading:
		state = "Loading..."
	case m.refresher != nil && m.refresher.IsPending():
		state = "Refreshing..."
	}
	if errs := fetchErrors(m.snap); errs != "" {
		state = ErrorStyle.Render(errs)
	}

	if state != "" {
		avail := m.width - lipgloss.Width(help) - lipgloss.Width(state) - 2
		if avail > 0 {
			help += strings.Repeat(" ", avail) + state
		} else {
			help += " " + state
		}
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

// fetchErrors lists the collections whose last load failed.
func fetchErrors(snap datasync.Snapshot) string {
	var failed []string
	for _, k := range datasync.AllKinds {
		if snap.Err(k) != nil {
			failed = append(failed, k.String())
		}
	}
	if len(failed) == 0 {
		return ""
	}
	return "Failed to load " + strings.Join(failed, ", ")
}

func (m Model) renderModal() string {
	title := "New Category"
	if m.mode == ModeAddTask {
		title = "Add Task"
		if cat := m.currentCategory(); cat != nil {
			title = fmt.Sprintf("Add Task to: %s", cat.Name)
		}
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ────╮
│                           │
│  Navigation               │
│  ──────────               │
│  j/↓    Move down         │
│  k/↑    Move up           │
│  h/l    Switch pane       │
│  Tab    Switch pane       │
│                           │
│  Actions                  │
│  ───────                  │
│  a       Add task         │
│  c       New category     │
│  x/Enter Toggle done      │
│  d       Delete           │
│  r       Refresh          │
│                           │
│  View                     │
│  ────                     │
│  /       Search           │
│  s       Cycle sort       │
│  p       Cycle priority   │
│  f       Cycle status     │
│  Esc     Clear search     │
│                           │
│  Other                    │
│  ─────                    │
│  ?       Toggle help      │
│  L       Logout           │
│  q       Quit             │
│                           │
╰───── Press any key ───────╯
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
