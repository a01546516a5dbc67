package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/wedplan/internal/actions"
	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/filter"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PaneTaskList
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddCategory
	ModeSearch
	ModeConfirmDelete
	ModeHelp
)

// Session is the part of the session manager the dashboard uses.
type Session interface {
	Identity() *model.Identity
	Logout(ctx context.Context) error
}

// Store is the cached entity collections.
type Store interface {
	Snapshot() datasync.Snapshot
	Refetch(ctx context.Context, kinds ...datasync.Kind) error
}

// Actions are the mutations reachable from the dashboard.
type Actions interface {
	CreateTask(ctx context.Context, in actions.TaskInput) (model.Task, error)
	ToggleTask(ctx context.Context, id string) (bool, error)
	DeleteTask(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, in actions.CategoryInput) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Deps wires the dashboard to the data layer. Refresher may be nil.
type Deps struct {
	Session   Session
	Data      Store
	Actions   Actions
	Refresher *datasync.AutoRefresh
	Sort      string
}

// Model is the main TUI model
type Model struct {
	ctx       context.Context
	session   Session
	data      Store
	actions   Actions
	refresher *datasync.AutoRefresh
	refreshCh chan error

	snap datasync.Snapshot
	view *filter.View
	opts filter.Options
	now  time.Time
	// clock is swapped in tests
	clock func() time.Time

	// UI state
	width      int
	height     int
	pane       Pane
	mode       Mode
	catCursor  int // 0 is "all categories"
	taskCursor int

	input textinput.Model

	// what a confirmed delete removes
	deleteKind string
	deleteID   string

	busy    bool
	message string
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, d Deps) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50

	opts := filter.Defaults()
	if key, ok := filter.ParseSortKey(d.Sort); ok {
		opts.Sort = key
	}

	m := Model{
		ctx:       ctx,
		session:   d.Session,
		data:      d.Data,
		actions:   d.Actions,
		refresher: d.Refresher,
		refreshCh: make(chan error, 1),
		view:      &filter.View{},
		opts:      opts,
		clock:     time.Now,
		pane:      PaneTaskList,
		input:     ti,
	}
	m.now = m.clock()

	if m.refresher != nil {
		ch := m.refreshCh
		m.refresher.SetOnRefresh(func(err error) {
			select {
			case ch <- err:
			default:
			}
		})
	}

	m.loadData()
	logger.Debug("TUI model initialized",
		logger.F("categories", len(m.snap.Categories)),
		logger.F("tasks", len(m.snap.Tasks)))
	return m
}

// loadData takes a fresh snapshot and keeps the cursors in range.
func (m *Model) loadData() {
	m.snap = m.data.Snapshot()
	if m.catCursor > len(m.snap.Categories) {
		m.catCursor = 0
	}
	if n := len(m.visibleTasks()); m.taskCursor >= n {
		m.taskCursor = max(n-1, 0)
	}
}

// currentCategory is nil while "all categories" is selected.
func (m *Model) currentCategory() *model.Category {
	if m.catCursor == 0 || m.catCursor > len(m.snap.Categories) {
		return nil
	}
	return &m.snap.Categories[m.catCursor-1]
}

// visibleTasks is the filtered and sorted list for the selected category.
func (m *Model) visibleTasks() []model.Task {
	tasks := filter.Resolved(m.snap.Tasks, m.snap.Categories)
	out := m.view.Compute(m.snap.Version, tasks, m.opts, m.now)
	if cat := m.currentCategory(); cat != nil {
		out = filter.InCategory(out, cat.ID)
	}
	return out
}

func (m *Model) currentTask() *model.Task {
	tasks := m.visibleTasks()
	if m.taskCursor < len(tasks) {
		return &tasks[m.taskCursor]
	}
	return nil
}
