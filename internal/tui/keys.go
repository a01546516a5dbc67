package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Add      key.Binding
	Category key.Binding
	Done     key.Binding
	Delete   key.Binding
	Sort     key.Binding
	Priority key.Binding
	Status   key.Binding
	Search   key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Logout   key.Binding
	Refresh  key.Binding
	Confirm  key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "categories")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "tasks")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "toggle")),
	Add:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
	Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "new category")),
	Done:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle done")),
	Delete:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Sort:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")),
	Priority: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "cycle priority")),
	Status:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "cycle status")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Refresh:  key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh")),
	Confirm:  key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
}
