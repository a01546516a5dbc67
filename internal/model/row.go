package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidRow is wrapped by every row parse failure.
var ErrInvalidRow = errors.New("invalid row")

// Row is an untyped record as returned by the remote store.
type Row = map[string]any

func rowErr(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRow, field, fmt.Sprintf(format, args...))
}

func rowID(r Row, field string) (string, error) {
	s, ok := r[field].(string)
	if !ok {
		return "", rowErr(field, "missing or not a string")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", rowErr(field, "not a uuid: %q", s)
	}
	return s, nil
}

func rowOptionalID(r Row, field string) (string, error) {
	if r[field] == nil {
		return "", nil
	}
	return rowID(r, field)
}

func rowString(r Row, field string) (string, error) {
	s, ok := r[field].(string)
	if !ok {
		return "", rowErr(field, "missing or not a string")
	}
	return s, nil
}

// rowOptionalString treats null and absence as empty.
func rowOptionalString(r Row, field string) (string, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", rowErr(field, "not a string")
	}
	return s, nil
}

func rowBool(r Row, field string) (bool, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, rowErr(field, "not a bool")
	}
	return b, nil
}

func rowInt(r Row, field string) (int, error) {
	switch v := r[field].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, rowErr(field, "not an integer: %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, rowErr(field, "not an integer: %s", v)
		}
		return int(n), nil
	default:
		return 0, rowErr(field, "not a number")
	}
}

func rowTime(r Row, field string) (time.Time, error) {
	switch v := r[field].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, rowErr(field, "bad timestamp %q", v)
		}
		return t, nil
	default:
		return time.Time{}, rowErr(field, "not a timestamp")
	}
}

func rowDate(r Row, field string) (*Date, error) {
	switch v := r[field].(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		d, err := ParseDate(v)
		if err != nil {
			return nil, rowErr(field, "%v", err)
		}
		return &d, nil
	case time.Time:
		d := DateOf(v.UTC())
		return &d, nil
	case Date:
		return &v, nil
	default:
		return nil, rowErr(field, "not a date")
	}
}

// ParseCategory validates a categories row.
func ParseCategory(r Row) (Category, error) {
	var (
		c   Category
		err error
	)
	if c.ID, err = rowID(r, "id"); err != nil {
		return c, err
	}
	if c.UserID, err = rowID(r, "user_id"); err != nil {
		return c, err
	}
	if c.Name, err = rowString(r, "name"); err != nil {
		return c, err
	}
	if c.Name == "" {
		return c, rowErr("name", "empty")
	}
	if c.Description, err = rowOptionalString(r, "description"); err != nil {
		return c, err
	}
	if c.Color, err = rowOptionalString(r, "color"); err != nil {
		return c, err
	}
	if c.Icon, err = rowOptionalString(r, "icon"); err != nil {
		return c, err
	}
	tl, err := rowString(r, "timeline")
	if err != nil {
		return c, err
	}
	if c.Timeline, err = ParseTimeline(tl); err != nil {
		return c, rowErr("timeline", "%v", err)
	}
	if c.OrderIndex, err = rowInt(r, "order_index"); err != nil {
		return c, err
	}
	if c.CreatedAt, err = rowTime(r, "created_at"); err != nil {
		return c, err
	}
	if c.UpdatedAt, err = rowTime(r, "updated_at"); err != nil {
		return c, err
	}
	return c, nil
}

// ParseTask validates a tasks row.
func ParseTask(r Row) (Task, error) {
	var (
		t   Task
		err error
	)
	if t.ID, err = rowID(r, "id"); err != nil {
		return t, err
	}
	if t.UserID, err = rowID(r, "user_id"); err != nil {
		return t, err
	}
	if t.CategoryID, err = rowID(r, "category_id"); err != nil {
		return t, err
	}
	if t.Title, err = rowString(r, "title"); err != nil {
		return t, err
	}
	if t.Description, err = rowOptionalString(r, "description"); err != nil {
		return t, err
	}
	if t.Completed, err = rowBool(r, "completed"); err != nil {
		return t, err
	}
	p, err := rowString(r, "priority")
	if err != nil {
		return t, err
	}
	if t.Priority, err = ParsePriority(p); err != nil {
		return t, rowErr("priority", "%v", err)
	}
	if t.DueDate, err = rowDate(r, "due_date"); err != nil {
		return t, err
	}
	if t.VenueLocation, err = rowOptionalString(r, "venue_location"); err != nil {
		return t, err
	}
	if t.IsImportant, err = rowBool(r, "is_important"); err != nil {
		return t, err
	}
	if t.OrderIndex, err = rowInt(r, "order_index"); err != nil {
		return t, err
	}
	if t.CreatedAt, err = rowTime(r, "created_at"); err != nil {
		return t, err
	}
	if t.UpdatedAt, err = rowTime(r, "updated_at"); err != nil {
		return t, err
	}
	return t, nil
}

// ParseNote validates a notes row including the general/task partition.
func ParseNote(r Row) (Note, error) {
	var (
		n   Note
		err error
	)
	if n.ID, err = rowID(r, "id"); err != nil {
		return n, err
	}
	if n.UserID, err = rowID(r, "user_id"); err != nil {
		return n, err
	}
	if n.TaskID, err = rowOptionalID(r, "task_id"); err != nil {
		return n, err
	}
	if n.Title, err = rowOptionalString(r, "title"); err != nil {
		return n, err
	}
	if n.Content, err = rowString(r, "content"); err != nil {
		return n, err
	}
	if n.IsGeneral, err = rowBool(r, "is_general"); err != nil {
		return n, err
	}
	if n.CreatedAt, err = rowTime(r, "created_at"); err != nil {
		return n, err
	}
	if n.UpdatedAt, err = rowTime(r, "updated_at"); err != nil {
		return n, err
	}
	if err := n.Validate(); err != nil {
		return n, fmt.Errorf("%w: %v", ErrInvalidRow, err)
	}
	return n, nil
}

// ParseProfile validates a profiles row.
func ParseProfile(r Row) (Profile, error) {
	var (
		p   Profile
		err error
	)
	if p.ID, err = rowID(r, "id"); err != nil {
		return p, err
	}
	if p.WeddingDate, err = rowDate(r, "wedding_date"); err != nil {
		return p, err
	}
	return p, nil
}

// CategoryRow builds the writable columns of c.
func CategoryRow(c Category) Row {
	return Row{
		"name":        c.Name,
		"description": c.Description,
		"color":       c.Color,
		"icon":        c.Icon,
		"timeline":    string(c.Timeline),
		"order_index": c.OrderIndex,
	}
}

// TaskRow builds the writable columns of t.
func TaskRow(t Task) Row {
	row := Row{
		"category_id":    t.CategoryID,
		"title":          t.Title,
		"description":    t.Description,
		"completed":      t.Completed,
		"priority":       string(t.Priority),
		"due_date":       nil,
		"venue_location": nil,
		"is_important":   t.IsImportant,
		"order_index":    t.OrderIndex,
	}
	if t.DueDate != nil {
		row["due_date"] = t.DueDate.String()
	}
	if t.VenueLocation != "" {
		row["venue_location"] = t.VenueLocation
	}
	return row
}

// NoteRow builds the writable columns of n.
func NoteRow(n Note) Row {
	row := Row{
		"title":      nil,
		"content":    n.Content,
		"is_general": n.IsGeneral,
		"task_id":    nil,
	}
	if n.Title != "" {
		row["title"] = n.Title
	}
	if !n.IsGeneral {
		row["task_id"] = n.TaskID
	}
	return row
}
