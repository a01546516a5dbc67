package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/existflow/wedplan/internal/model"
)

func date(s string) *model.Date {
	d := model.MustDate(s)
	return &d
}

func TestOverall(t *testing.T) {
	p := Overall([]model.Task{{Completed: true}, {}, {}})
	assert.Equal(t, Progress{Completed: 1, Total: 3}, p)
	assert.Equal(t, 33, p.Percent())
	assert.Equal(t, 0, Overall(nil).Percent())
}

func TestByCategory(t *testing.T) {
	cats := []model.Category{{ID: "c1"}, {ID: "c2"}}
	tasks := []model.Task{
		{CategoryID: "c1", Completed: true},
		{CategoryID: "c1"},
		{CategoryID: "gone", Completed: true},
	}
	got := ByCategory(tasks, cats)
	assert.Equal(t, Progress{Completed: 1, Total: 2}, got[0].Progress)
	assert.Equal(t, Progress{}, got[1].Progress)
	assert.Equal(t, 50, got[0].Percent())
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	tasks := []model.Task{
		{IsImportant: true},
		{IsImportant: true, Completed: true},
		{DueDate: date("2024-03-10")},
		{DueDate: date("2024-03-01")},
		{DueDate: date("2024-03-01"), Completed: true},
		{DueDate: date("2024-04-01")},
	}
	d := Summarize(tasks, now)
	assert.Equal(t, Digest{Important: 1, DueToday: 1, Overdue: 1}, d)
	assert.Equal(t, 3, d.Total())
}

func TestUntil(t *testing.T) {
	now := time.Date(2025, 6, 12, 22, 30, 15, 0, time.UTC)
	c := Until(model.MustDate("2025-06-14"), now)
	assert.Equal(t, Countdown{Days: 1, Hours: 1, Minutes: 29, Seconds: 45}, c)
	assert.Equal(t, "1d 01h 29m 45s", c.String())

	past := Until(model.MustDate("2025-06-14"), time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC))
	assert.True(t, past.Past)
	assert.Zero(t, past.Days)
}
