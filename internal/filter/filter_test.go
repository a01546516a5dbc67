package filter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/wedplan/internal/model"
)

var clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func date(s string) *model.Date {
	d := model.MustDate(s)
	return &d
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func sample() []model.Task {
	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return []model.Task{
		{ID: "1", Title: "Book venue", Description: "Ballroom downtown", Priority: model.PriorityUrgent, DueDate: date("2023-12-01"), CreatedAt: base},
		{ID: "2", Title: "Pick flowers", Priority: model.PriorityLow, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Title: "cake tasting", Description: "Try the VENUE bakery", Priority: model.PriorityMedium, Completed: true, DueDate: date("2023-11-01"), CreatedAt: base.Add(2 * time.Hour)},
		{ID: "4", Title: "Hire band", Priority: model.PriorityHigh, IsImportant: true, DueDate: date("2024-05-01"), CreatedAt: base.Add(3 * time.Hour)},
		{ID: "5", Title: "Send invites", Priority: model.PriorityUrgent, IsImportant: true, DueDate: date("2024-02-01"), CreatedAt: base.Add(4 * time.Hour)},
		{ID: "6", Title: "Alterations", Priority: model.PriorityHigh, CreatedAt: base.Add(5 * time.Hour)},
	}
}

func TestApplySearch(t *testing.T) {
	tasks := sample()
	got := ApplySearch(tasks, "VeNuE")
	assert.Equal(t, []string{"Book venue", "cake tasting"}, titles(got))

	for _, term := range []string{"a", "band", "zzz", "Ballroom"} {
		got := ApplySearch(tasks, term)
		in := make(map[string]bool)
		for _, task := range got {
			in[task.ID] = true
			hay := strings.ToLower(task.Title + "\n" + task.Description)
			assert.Contains(t, hay, strings.ToLower(term))
		}
		for _, task := range tasks {
			match := strings.Contains(strings.ToLower(task.Title), strings.ToLower(term)) ||
				strings.Contains(strings.ToLower(task.Description), strings.ToLower(term))
			assert.Equal(t, match, in[task.ID], "term %q task %q", term, task.Title)
		}
	}

	assert.Len(t, ApplySearch(tasks, ""), len(tasks))
}

func TestApplyPriority(t *testing.T) {
	tasks := sample()
	assert.Equal(t, []string{"Book venue", "Send invites"}, titles(ApplyPriority(tasks, "urgent")))
	assert.Len(t, ApplyPriority(tasks, PriorityAll), len(tasks))
	assert.Len(t, ApplyPriority(tasks, ""), len(tasks))
}

func TestCompletedAndPendingPartition(t *testing.T) {
	tasks := sample()
	done := ApplyStatus(tasks, StatusCompleted, clock)
	open := ApplyStatus(tasks, StatusPending, clock)

	assert.Equal(t, len(tasks), len(done)+len(open))
	seen := make(map[string]int)
	for _, task := range append(done, open...) {
		seen[task.ID]++
	}
	for _, task := range tasks {
		assert.Equal(t, 1, seen[task.ID], task.Title)
	}
}

func TestOverdue(t *testing.T) {
	tasks := sample()
	got := ApplyStatus(tasks, StatusOverdue, clock)
	assert.Equal(t, []string{"Book venue"}, titles(got))

	for _, task := range got {
		require.NotNil(t, task.DueDate)
		assert.True(t, task.DueDate.Time().Before(clock))
		assert.False(t, task.Completed)
	}

	later := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"Book venue", "Send invites"}, titles(ApplyStatus(tasks, StatusOverdue, later)))
}

func TestOverdueScenario(t *testing.T) {
	tasks := []model.Task{
		{Title: "Book venue", DueDate: date("2020-01-01")},
		{Title: "Pick flowers"},
	}
	got := Apply(tasks, Options{Status: StatusOverdue}, clock)
	assert.Equal(t, []string{"Book venue"}, titles(got))
}

func TestImportant(t *testing.T) {
	assert.Equal(t, []string{"Hire band", "Send invites"}, titles(ApplyStatus(sample(), StatusImportant, clock)))
}

func TestSortDueDate(t *testing.T) {
	got := Sort(sample(), SortDueDate)
	assert.Equal(t, []string{"cake tasting", "Book venue", "Send invites", "Hire band", "Pick flowers", "Alterations"}, titles(got))

	seenUndated := false
	for i, task := range got {
		if task.DueDate == nil {
			seenUndated = true
			continue
		}
		assert.False(t, seenUndated, "dated task after undated one")
		if i > 0 && got[i-1].DueDate != nil {
			assert.False(t, task.DueDate.Before(*got[i-1].DueDate))
		}
	}
}

func TestSortPriority(t *testing.T) {
	got := Sort(sample(), SortPriority)
	assert.Equal(t, []string{"Book venue", "Send invites", "Hire band", "Alterations", "cake tasting", "Pick flowers"}, titles(got))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Priority.Rank(), got[i].Priority.Rank())
	}

	asc := Sort(sample(), SortPriorityDesc)
	assert.Equal(t, []string{"Pick flowers", "cake tasting", "Hire band", "Alterations", "Book venue", "Send invites"}, titles(asc))
}

func TestSortTitle(t *testing.T) {
	got := Sort(sample(), SortTitle)
	assert.Equal(t, []string{"Alterations", "Book venue", "cake tasting", "Hire band", "Pick flowers", "Send invites"}, titles(got))

	desc := Sort(sample(), SortTitleDesc)
	assert.Equal(t, "Send invites", desc[0].Title)
	assert.Equal(t, "Alterations", desc[len(desc)-1].Title)
}

func TestSortCreatedAt(t *testing.T) {
	assert.Equal(t, "Alterations", Sort(sample(), SortCreatedAt)[0].Title)
	assert.Equal(t, "Book venue", Sort(sample(), SortCreatedAtDesc)[0].Title)
}

func TestUnknownSortKeepsOrder(t *testing.T) {
	tasks := sample()
	assert.Equal(t, titles(tasks), titles(Sort(tasks, "shoe_size")))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	tasks := sample()
	before := titles(tasks)
	Sort(tasks, SortTitle)
	assert.Equal(t, before, titles(tasks))
}

func TestApplyComposes(t *testing.T) {
	got := Apply(sample(), Options{Search: "e", Priority: "urgent", Status: StatusPending, Sort: SortTitleDesc}, clock)
	assert.Equal(t, []string{"Send invites", "Book venue"}, titles(got))
}

func TestParse(t *testing.T) {
	_, ok := ParseStatus("overdue")
	assert.True(t, ok)
	_, ok = ParseStatus("late")
	assert.False(t, ok)
	_, ok = ParseSortKey("due_date")
	assert.True(t, ok)
	_, ok = ParseSortKey("random")
	assert.False(t, ok)
}
