package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	uid  = "6f1c1f38-4d0a-4a53-9d0e-1b7b6c0b7a11"
	cid  = "0b4f7a4e-6a3e-4f0e-9c1a-2f3d4e5f6a7b"
	tid  = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	nid  = "1d2c3b4a-5f6e-4d7c-8b9a-0f1e2d3c4b5a"
	when = "2024-03-01T10:00:00Z"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, Date{2025, time.June, 14}, d)
	assert.Equal(t, "2025-06-14", d.String())
	assert.Equal(t, time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC), d.Time())

	d, err = ParseDate("2025-06-14T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-14", d.String())

	_, err = ParseDate("14/06/2025")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D *Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &v))
	require.NotNil(t, v.D)
	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29"}`, string(out))
}

func TestPriorityRank(t *testing.T) {
	assert.Equal(t, 4, PriorityUrgent.Rank())
	assert.Equal(t, 3, PriorityHigh.Rank())
	assert.Equal(t, 2, PriorityMedium.Rank())
	assert.Equal(t, 1, PriorityLow.Rank())
	assert.Equal(t, 0, Priority("critical").Rank())

	_, err := ParsePriority("critical")
	assert.Error(t, err)
}

func TestTaskIsOverdue(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	past := MustDate("2020-01-01")
	today := MustDate("2024-01-01")

	assert.True(t, (&Task{DueDate: &past}).IsOverdue(now))
	assert.False(t, (&Task{DueDate: &past, Completed: true}).IsOverdue(now))
	assert.False(t, (&Task{}).IsOverdue(now))
	// midnight of today is not strictly before now
	assert.False(t, (&Task{DueDate: &today}).IsOverdue(now))
	assert.True(t, (&Task{DueDate: &today}).IsOverdue(now.Add(time.Minute)))
}

func TestSeedRows(t *testing.T) {
	rows := SeedRows(uid)
	require.Len(t, rows, 10)

	names := make(map[string]bool)
	for i, r := range rows {
		assert.Equal(t, i, r["order_index"])
		assert.Equal(t, uid, r["user_id"])
		names[r["name"].(string)] = true
	}
	assert.Len(t, names, 10)
	assert.Equal(t, "Venue & Catering", rows[0]["name"])
	assert.Equal(t, "Hari H", rows[9]["name"])
	assert.Equal(t, "day-of", rows[9]["timeline"])
}

func TestParseCategory(t *testing.T) {
	row := Row{
		"id": cid, "user_id": uid, "name": "Undangan", "description": nil,
		"color": "bg-amber-500", "icon": "💌", "timeline": "3-months",
		"order_index": json.Number("3"), "created_at": when, "updated_at": when,
	}
	c, err := ParseCategory(row)
	require.NoError(t, err)
	assert.Equal(t, 3, c.OrderIndex)
	assert.Equal(t, Timeline3Months, c.Timeline)
	assert.Equal(t, "", c.Description)

	row["timeline"] = "2-years"
	_, err = ParseCategory(row)
	assert.True(t, errors.Is(err, ErrInvalidRow))

	row["timeline"] = "3-months"
	row["id"] = "not-a-uuid"
	_, err = ParseCategory(row)
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestParseTask(t *testing.T) {
	row := Row{
		"id": tid, "user_id": uid, "category_id": cid, "title": "Book venue",
		"completed": false, "priority": "urgent", "due_date": "2025-01-10",
		"is_important": true, "order_index": float64(999), "created_at": when,
	}
	task, err := ParseTask(row)
	require.NoError(t, err)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2025-01-10", task.DueDate.String())
	assert.Equal(t, PriorityUrgent, task.Priority)
	assert.Equal(t, 999, task.OrderIndex)

	row["priority"] = "whenever"
	_, err = ParseTask(row)
	assert.ErrorIs(t, err, ErrInvalidRow)

	row["priority"] = "low"
	row["order_index"] = 1.5
	_, err = ParseTask(row)
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestParseNote(t *testing.T) {
	general := Row{"id": nid, "user_id": uid, "content": "call mum", "is_general": true, "task_id": nil}
	n, err := ParseNote(general)
	require.NoError(t, err)
	assert.True(t, n.IsGeneral)

	general["task_id"] = tid
	_, err = ParseNote(general)
	assert.ErrorIs(t, err, ErrInvalidRow)

	scoped := Row{"id": nid, "user_id": uid, "content": "deposit paid", "is_general": false}
	_, err = ParseNote(scoped)
	assert.ErrorIs(t, err, ErrInvalidRow)

	scoped["task_id"] = tid
	n, err = ParseNote(scoped)
	require.NoError(t, err)
	assert.Equal(t, tid, n.TaskID)
}

func TestNoteRow(t *testing.T) {
	row := NoteRow(Note{Content: "x", IsGeneral: true, TaskID: tid})
	assert.Nil(t, row["task_id"])
	assert.Nil(t, row["title"])
}

func TestSuggestionsFor(t *testing.T) {
	for _, s := range SeedCategories() {
		assert.Len(t, SuggestionsFor(s.Name), 5, s.Name)
	}
	assert.Nil(t, SuggestionsFor("Custom"))
}
