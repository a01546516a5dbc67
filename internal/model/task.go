package model

import (
	"fmt"
	"time"
)

// Priority of a task. Ordered urgent > high > medium > low.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Rank maps urgent=4, high=3, medium=2, low=1. Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if p.Rank() == 0 {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Order index given to tasks created from the app; they land at the end.
const NewTaskOrderIndex = 999

// Task is a checklist item inside a category.
type Task struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CategoryID    string    `json:"category_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Completed     bool      `json:"completed"`
	Priority      Priority  `json:"priority"`
	DueDate       *Date     `json:"due_date,omitempty"`
	VenueLocation string    `json:"venue_location,omitempty"`
	IsImportant   bool      `json:"is_important"`
	OrderIndex    int       `json:"order_index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOverdue reports whether the task has a due date before now and is still
// open. The due date counts from midnight UTC.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return t.DueDate.Time().Before(now)
}

// IsDueOn reports whether the task is due on day.
func (t *Task) IsDueOn(day Date) bool {
	return t.DueDate != nil && t.DueDate.Equal(day)
}
