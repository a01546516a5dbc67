package filter

import (
	"slices"
	"sync"
	"time"

	"github.com/existflow/wedplan/internal/model"
)

// View memoizes Apply on its inputs. The task collection is identified by
// a caller supplied version that must change whenever the tasks change.
// The clock only matters for the overdue status.
type View struct {
	mu      sync.Mutex
	valid   bool
	version uint64
	opts    Options
	now     time.Time
	result  []model.Task
	misses  int
}

// Compute returns the filtered view, reusing the previous result when the
// inputs are unchanged.
func (v *View) Compute(version uint64, tasks []model.Task, opts Options, now time.Time) []model.Task {
	v.mu.Lock()
	defer v.mu.Unlock()

	clockMatters := opts.Status == StatusOverdue
	if v.valid && v.version == version && v.opts == opts && (!clockMatters || v.now.Equal(now)) {
		return slices.Clone(v.result)
	}

	v.misses++
	v.result = Apply(tasks, opts, now)
	v.version, v.opts, v.now, v.valid = version, opts, now, true
	return slices.Clone(v.result)
}

// Group is one category with its visible tasks.
type Group struct {
	Category model.Category
	Tasks    []model.Task
}

// GroupByCategory buckets tasks under their categories in category order,
// keeping task order within a bucket. Tasks whose category is not in cats
// are left out.
func GroupByCategory(tasks []model.Task, cats []model.Category) []Group {
	groups := make([]Group, len(cats))
	pos := make(map[string]int, len(cats))
	for i, c := range cats {
		groups[i].Category = c
		pos[c.ID] = i
	}
	for _, t := range tasks {
		if i, ok := pos[t.CategoryID]; ok {
			groups[i].Tasks = append(groups[i].Tasks, t)
		}
	}
	return groups
}

// Resolved drops tasks whose category is not in cats.
func Resolved(tasks []model.Task, cats []model.Category) []model.Task {
	idx := model.CategoryIndex(cats)
	return keep(tasks, func(t model.Task) bool {
		_, ok := idx[t.CategoryID]
		return ok
	})
}

// InCategory keeps the tasks of one category.
func InCategory(tasks []model.Task, categoryID string) []model.Task {
	if categoryID == "" {
		return slices.Clone(tasks)
	}
	return keep(tasks, func(t model.Task) bool { return t.CategoryID == categoryID })
}
