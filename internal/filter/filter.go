// Package filter derives the task list shown to the user: search,
// priority and status filters followed by one sort order.
package filter

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/existflow/wedplan/internal/model"
)

// Status selects tasks by completion state.
type Status string

const (
	StatusAll       Status = "all"
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusImportant Status = "important"
	StatusOverdue   Status = "overdue"
)

// Statuses lists the recognised statuses.
var Statuses = []Status{StatusAll, StatusCompleted, StatusPending, StatusImportant, StatusOverdue}

// SortKey selects the output order.
type SortKey string

const (
	SortTitle         SortKey = "title"
	SortTitleDesc     SortKey = "title_desc"
	SortPriority      SortKey = "priority" // most urgent first
	SortPriorityDesc  SortKey = "priority_desc"
	SortDueDate       SortKey = "due_date"
	SortCreatedAt     SortKey = "created_at" // newest first
	SortCreatedAtDesc SortKey = "created_at_desc"
)

// SortKeys lists the recognised sort keys.
var SortKeys = []SortKey{
	SortTitle, SortTitleDesc, SortPriority, SortPriorityDesc,
	SortDueDate, SortCreatedAt, SortCreatedAtDesc,
}

// PriorityAll disables the priority filter.
const PriorityAll = "all"

// Options is the full filter and sort configuration.
type Options struct {
	Search   string
	Priority string
	Status   Status
	Sort     SortKey
}

// Defaults shows every task, newest first.
func Defaults() Options {
	return Options{Priority: PriorityAll, Status: StatusAll, Sort: SortCreatedAt}
}

// ApplySearch keeps tasks whose title or description contains term,
// ignoring case. An empty term keeps everything.
func ApplySearch(tasks []model.Task, term string) []model.Task {
	if term == "" {
		return slices.Clone(tasks)
	}
	needle := strings.ToLower(term)
	return keep(tasks, func(t model.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle)
	})
}

// ApplyPriority keeps tasks with exactly priority p. "all" and "" keep
// everything.
func ApplyPriority(tasks []model.Task, p string) []model.Task {
	if p == "" || p == PriorityAll {
		return slices.Clone(tasks)
	}
	return keep(tasks, func(t model.Task) bool { return string(t.Priority) == p })
}

// ApplyStatus keeps tasks matching status. Overdue is evaluated at now.
// Unknown statuses keep everything.
func ApplyStatus(tasks []model.Task, status Status, now time.Time) []model.Task {
	switch status {
	case StatusCompleted:
		return keep(tasks, func(t model.Task) bool { return t.Completed })
	case StatusPending:
		return keep(tasks, func(t model.Task) bool { return !t.Completed })
	case StatusImportant:
		return keep(tasks, func(t model.Task) bool { return t.IsImportant })
	case StatusOverdue:
		return keep(tasks, func(t model.Task) bool { return t.IsOverdue(now) })
	default:
		return slices.Clone(tasks)
	}
}

// Sort returns a stably sorted copy. Unknown keys keep the input order.
func Sort(tasks []model.Task, key SortKey) []model.Task {
	out := slices.Clone(tasks)
	switch key {
	case SortTitle, SortTitleDesc:
		col := collate.New(language.Und)
		sign := 1
		if key == SortTitleDesc {
			sign = -1
		}
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return sign * col.CompareString(a.Title, b.Title)
		})
	case SortPriority:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		})
	case SortPriorityDesc:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return cmp.Compare(a.Priority.Rank(), b.Priority.Rank())
		})
	case SortDueDate:
		slices.SortStableFunc(out, compareDue)
	case SortCreatedAt:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortCreatedAtDesc:
		slices.SortStableFunc(out, func(a, b model.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return out
}

// compareDue orders by due date with undated tasks last.
func compareDue(a, b model.Task) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	}
	return a.DueDate.Time().Compare(b.DueDate.Time())
}

// Apply runs search, priority and status filters in that order, then sorts.
func Apply(tasks []model.Task, opts Options, now time.Time) []model.Task {
	out := ApplySearch(tasks, opts.Search)
	out = ApplyPriority(out, opts.Priority)
	out = ApplyStatus(out, opts.Status, now)
	return Sort(out, opts.Sort)
}

func keep(tasks []model.Task, pred func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}

// ParseStatus validates s.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	return st, slices.Contains(Statuses, st)
}

// ParseSortKey validates s.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(s)
	return k, slices.Contains(SortKeys, k)
}
