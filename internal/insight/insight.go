// Package insight computes dashboard aggregates from cached tasks.
package insight

import (
	"time"

	"github.com/existflow/wedplan/internal/model"
)

// Progress counts completed tasks.
type Progress struct {
	Completed int
	Total     int
}

// Percent returns completion rounded down to a whole percent, 0 when empty.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return p.Completed * 100 / p.Total
}

// Overall computes progress over every task.
func Overall(tasks []model.Task) Progress {
	var p Progress
	for _, t := range tasks {
		p.Total++
		if t.Completed {
			p.Completed++
		}
	}
	return p
}

// CategoryProgress is the progress of one category.
type CategoryProgress struct {
	Category model.Category
	Progress
}

// ByCategory computes progress per category in category order. Tasks whose
// category is unknown are not counted anywhere.
func ByCategory(tasks []model.Task, cats []model.Category) []CategoryProgress {
	out := make([]CategoryProgress, len(cats))
	pos := make(map[string]int, len(cats))
	for i, c := range cats {
		out[i].Category = c
		pos[c.ID] = i
	}
	for _, t := range tasks {
		i, ok := pos[t.CategoryID]
		if !ok {
			continue
		}
		out[i].Total++
		if t.Completed {
			out[i].Completed++
		}
	}
	return out
}

// Digest holds the counts shown in the notification badge.
type Digest struct {
	Important int // important and open
	DueToday  int // due today and open
	Overdue   int
}

// Total is the badge number.
func (d Digest) Total() int {
	return d.Important + d.DueToday + d.Overdue
}

// Summarize counts open important, due-today and overdue tasks at now.
// "Today" is the calendar day of now in now's location.
func Summarize(tasks []model.Task, now time.Time) Digest {
	today := model.DateOf(now)
	var d Digest
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		if t.IsImportant {
			d.Important++
		}
		if t.IsDueOn(today) {
			d.DueToday++
		}
		if t.IsOverdue(now) && !t.IsDueOn(today) {
			d.Overdue++
		}
	}
	return d
}
