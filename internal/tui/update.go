package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/wedplan/internal/actions"
	"github.com/existflow/wedplan/internal/filter"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// tickMsg is sent every second for the countdown
type tickMsg time.Time

// refreshMsg is sent after a background reload
type refreshMsg struct{ err error }

// actionMsg reports the outcome of a mutation
type actionMsg struct {
	text string
	err  error
	quit bool
}

// Init initializes the model with a tick command
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForRefresh())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForRefresh listens for background reload signals
func (m Model) waitForRefresh() tea.Cmd {
	if m.refresher == nil {
		return nil
	}
	ch := m.refreshCh
	return func() tea.Msg {
		return refreshMsg{err: <-ch}
	}
}

// run executes fn off the update loop and reports back with an actionMsg.
func (m Model) run(fn func(ctx context.Context) (string, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		text, err := fn(ctx)
		return actionMsg{text: text, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = m.clock()
		m.loadData()
		return m, tickCmd()

	case refreshMsg:
		m.loadData()
		if msg.err != nil {
			m.message = "Refresh failed: " + errorText(msg.err)
		}
		return m, m.waitForRefresh()

	case actionMsg:
		m.busy = false
		m.loadData()
		if msg.err != nil {
			logger.Debug("Dashboard action failed", logger.F("error", msg.err))
			m.message = errorText(msg.err)
		} else {
			m.message = msg.text
		}
		if msg.quit && msg.err == nil {
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeAddCategory:
			return m.updateInput(msg)
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PaneTaskList
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneSidebar

	case key.Matches(msg, keys.Right):
		m.pane = PaneTaskList

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.Sort):
		m.opts.Sort = next(filter.SortKeys, m.opts.Sort)
		m.taskCursor = 0
		m.message = "Sort: " + string(m.opts.Sort)

	case key.Matches(msg, keys.Priority):
		m.opts.Priority = nextPriority(m.opts.Priority)
		m.taskCursor = 0
		m.message = "Priority: " + m.opts.Priority

	case key.Matches(msg, keys.Status):
		m.opts.Status = next(filter.Statuses, m.opts.Status)
		m.taskCursor = 0
		m.message = "Status: " + string(m.opts.Status)

	case key.Matches(msg, keys.Search):
		return m.startSearch()

	case key.Matches(msg, keys.Escape):
		if m.opts.Search != "" {
			m.opts.Search = ""
			m.message = "Search cleared"
		}

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Category):
		return m.startAddCategory()

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		if m.pane == PaneSidebar && key.Matches(msg, keys.Enter) {
			m.pane = PaneTaskList
			return m, nil
		}
		return m.handleToggleDone()

	case key.Matches(msg, keys.Delete):
		m.startDelete()

	case key.Matches(msg, keys.Refresh):
		return m.handleRefresh()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Logout):
		return m.handleLogout()
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneSidebar {
		if m.catCursor > 0 {
			m.catCursor--
			m.taskCursor = 0
		}
		return
	}
	if m.taskCursor > 0 {
		m.taskCursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneSidebar {
		if m.catCursor < len(m.snap.Categories) {
			m.catCursor++
			m.taskCursor = 0
		}
		return
	}
	if m.taskCursor < len(m.visibleTasks())-1 {
		m.taskCursor++
	}
}

func (m Model) handleToggleDone() (tea.Model, tea.Cmd) {
	t := m.currentTask()
	if t == nil || m.busy {
		return m, nil
	}
	id, title := t.ID, t.Title
	m.busy = true
	return m, m.run(func(ctx context.Context) (string, error) {
		done, err := m.actions.ToggleTask(ctx, id)
		if err != nil {
			return "", err
		}
		if done {
			return fmt.Sprintf("Done: %s", title), nil
		}
		return fmt.Sprintf("Reopened: %s", title), nil
	})
}

func (m *Model) startDelete() {
	if m.pane == PaneSidebar {
		cat := m.currentCategory()
		if cat == nil {
			return
		}
		m.deleteKind, m.deleteID = "category", cat.ID
		m.message = fmt.Sprintf("Delete category %q? (y/n)", cat.Name)
	} else {
		t := m.currentTask()
		if t == nil {
			return
		}
		m.deleteKind, m.deleteID = "task", t.ID
		m.message = fmt.Sprintf("Delete task %q? (y/n)", t.Title)
	}
	m.mode = ModeConfirmDelete
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	kind, id := m.deleteKind, m.deleteID
	m.deleteKind, m.deleteID = "", ""
	if !key.Matches(msg, keys.Confirm) {
		m.message = "Cancelled"
		return m, nil
	}

	m.busy = true
	return m, m.run(func(ctx context.Context) (string, error) {
		if kind == "category" {
			if err := m.actions.DeleteCategory(ctx, id); err != nil {
				return "", err
			}
			return "Category deleted", nil
		}
		if err := m.actions.DeleteTask(ctx, id); err != nil {
			return "", err
		}
		return "Task deleted", nil
	})
}

func (m Model) handleRefresh() (tea.Model, tea.Cmd) {
	m.message = "Refreshing..."
	return m, m.run(func(ctx context.Context) (string, error) {
		if err := m.data.Refetch(ctx); err != nil {
			return "", err
		}
		return "Refreshed", nil
	})
}

func (m Model) handleLogout() (tea.Model, tea.Cmd) {
	return m, func() tea.Msg {
		if err := m.session.Logout(m.ctx); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "Signed out", quit: true}
	}
}

func (m Model) startSearch() (tea.Model, tea.Cmd) {
	m.mode = ModeSearch
	m.input.Placeholder = "title or description..."
	m.input.SetValue(m.opts.Search)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

// updateSearch filters live while typing.
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.opts.Search = ""
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.opts.Search = m.input.Value()
	m.taskCursor = 0
	return m, cmd
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	if m.currentCategory() == nil {
		m.message = "Select a category first"
		m.pane = PaneSidebar
		return m, nil
	}
	m.mode = ModeAddTask
	m.input.Placeholder = "Task title..."
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m Model) startAddCategory() (tea.Model, tea.Cmd) {
	m.mode = ModeAddCategory
	m.input.Placeholder = "Category name..."
	m.input.SetValue("")
	return m, m.input.Focus()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()
		m.input.SetValue("")
		if value == "" {
			return m, nil
		}
		if mode == ModeAddCategory {
			return m.createCategory(value)
		}
		return m.createTask(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) createTask(title string) (tea.Model, tea.Cmd) {
	cat := m.currentCategory()
	if cat == nil {
		return m, nil
	}
	in := actions.TaskInput{Title: title, CategoryID: cat.ID, Priority: model.PriorityMedium}
	m.busy = true
	return m, m.run(func(ctx context.Context) (string, error) {
		if _, err := m.actions.CreateTask(ctx, in); err != nil {
			return "", err
		}
		return "Task added", nil
	})
}

func (m Model) createCategory(name string) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, m.run(func(ctx context.Context) (string, error) {
		if _, err := m.actions.CreateCategory(ctx, actions.CategoryInput{Name: name}); err != nil {
			return "", err
		}
		return "Category added", nil
	})
}

// next returns the element after cur, wrapping around.
func next[T comparable](all []T, cur T) T {
	i := slices.Index(all, cur)
	return all[(i+1)%len(all)]
}

// nextPriority cycles all, urgent, high, medium, low.
func nextPriority(cur string) string {
	all := []string{filter.PriorityAll}
	for _, p := range model.Priorities {
		all = append(all, string(p))
	}
	return next(all, cur)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, actions.ErrCategoryInUse):
		return "Kategori masih memiliki tugas. Hapus atau pindahkan tugas terlebih dahulu."
	case errors.Is(err, actions.ErrNotSignedIn):
		return "Not signed in"
	}
	return remote.Message(err)
}
