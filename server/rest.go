package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// tableSpec whitelists what the table endpoints may touch.
type tableSpec struct {
	name     string
	owner    string
	columns  []string
	writable []string
	ids      []string
	dates    []string
}

func (t tableSpec) readable(col string) bool { return slices.Contains(t.columns, col) }
func (t tableSpec) isID(col string) bool     { return slices.Contains(t.ids, col) }
func (t tableSpec) isDate(col string) bool   { return slices.Contains(t.dates, col) }

var tableSpecs = map[string]tableSpec{
	remote.TableProfiles: {
		name:     remote.TableProfiles,
		owner:    "id",
		columns:  []string{"id", "wedding_date", "created_at", "updated_at"},
		writable: []string{"wedding_date", "updated_at"},
		ids:      []string{"id"},
		dates:    []string{"wedding_date"},
	},
	remote.TableCategories: {
		name:  remote.TableCategories,
		owner: "user_id",
		columns: []string{"id", "user_id", "name", "description", "color", "icon", "timeline",
			"order_index", "seed_key", "created_at", "updated_at"},
		writable: []string{"name", "description", "color", "icon", "timeline", "order_index", "updated_at"},
		ids:      []string{"id", "user_id"},
	},
	remote.TableTasks: {
		name:  remote.TableTasks,
		owner: "user_id",
		columns: []string{"id", "user_id", "category_id", "title", "description", "completed",
			"priority", "due_date", "venue_location", "is_important", "order_index", "created_at", "updated_at"},
		writable: []string{"category_id", "title", "description", "completed", "priority", "due_date",
			"venue_location", "is_important", "order_index", "updated_at"},
		ids:   []string{"id", "user_id", "category_id"},
		dates: []string{"due_date"},
	},
	remote.TableNotes: {
		name:     remote.TableNotes,
		owner:    "user_id",
		columns:  []string{"id", "user_id", "task_id", "title", "content", "is_general", "created_at", "updated_at"},
		writable: []string{"task_id", "title", "content", "is_general", "updated_at"},
		ids:      []string{"id", "user_id", "task_id"},
	},
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

func unknownTable(c echo.Context) error {
	return apiError(c, http.StatusNotFound, remote.CodeNotFound, "unknown table "+c.Param("table"))
}

// params collects query arguments and hands out their $n placeholders.
type params struct{ args []any }

func (p *params) add(v any) string {
	p.args = append(p.args, v)
	return fmt.Sprintf("$%d", len(p.args))
}

// whereClause turns col=eq.value query parameters into owner-scoped
// conditions.
func whereClause(t tableSpec, owner string, query url.Values, p *params) (string, error) {
	conds := []string{t.owner + " = " + p.add(owner)}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k != "order" && k != "select" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, col := range keys {
		if !t.readable(col) {
			return "", badRequest("unknown column " + col)
		}
		for _, raw := range query[col] {
			value, ok := strings.CutPrefix(raw, "eq.")
			if !ok {
				return "", badRequest("only eq filters are supported")
			}
			if t.isID(col) {
				if _, err := uuid.Parse(value); err != nil {
					return "", badRequest("invalid id in " + col)
				}
			}
			conds = append(conds, col+" = "+p.add(value))
		}
	}
	return strings.Join(conds, " AND "), nil
}

func orderClause(t tableSpec, order string) (string, error) {
	if order == "" {
		return "", nil
	}
	col, dir, _ := strings.Cut(order, ".")
	if !t.readable(col) {
		return "", badRequest("unknown order column " + col)
	}
	switch dir {
	case "", "asc":
		return " ORDER BY " + col + " ASC, created_at ASC", nil
	case "desc":
		return " ORDER BY " + col + " DESC, created_at DESC", nil
	}
	return "", badRequest("invalid order direction " + dir)
}

// normalizeValue checks a JSON value for column col and converts it into a
// query argument.
func normalizeValue(t tableSpec, col string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return val, nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, badRequest("invalid number in " + col)
		}
		return f, nil
	case string:
		if t.isID(col) {
			if _, err := uuid.Parse(val); err != nil {
				return nil, badRequest("invalid id in " + col)
			}
		}
		if t.isDate(col) {
			if _, err := model.ParseDate(val); err != nil {
				return nil, badRequest("invalid date in " + col)
			}
		}
		return val, nil
	}
	return nil, badRequest("unsupported value in " + col)
}

// decodeRows reads a JSON array of objects, or a single object.
func decodeRows(body io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if len(data) > 0 && data[0] == '{' {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, badRequest("invalid JSON body")
		}
		return []map[string]any{row}, nil
	}
	var rows []map[string]any
	if err := dec.Decode(&rows); err != nil {
		return nil, badRequest("invalid JSON body")
	}
	return rows, nil
}

// scanRows reads every row into a column map. Timestamps are rendered as
// RFC 3339 and date columns as yyyy-mm-dd.
func scanRows(t tableSpec, rows *sql.Rows) ([]map[string]any, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			switch v := vals[i].(type) {
			case []byte:
				row[col] = string(v)
			case time.Time:
				if t.isDate(col) {
					row[col] = v.Format(model.DateLayout)
				} else {
					row[col] = v.UTC().Format(time.RFC3339Nano)
				}
			default:
				row[col] = v
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Server) restError(c echo.Context, what string, err error) error {
	var bad badRequest
	switch {
	case errors.As(err, &bad):
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, string(bad))
	case isPQError(err, pqForeignKeyViolation):
		if strings.HasPrefix(what, "delete") {
			return apiError(c, http.StatusBadRequest, remote.CodeValidation, "row is still referenced")
		}
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "referenced row does not exist")
	}
	return internalError(c, what, err)
}

func (s *Server) handleSelect(c echo.Context) error {
	t, ok := tableSpecs[c.Param("table")]
	if !ok {
		return unknownTable(c)
	}

	var p params
	where, err := whereClause(t, userID(c), c.QueryParams(), &p)
	if err != nil {
		return s.restError(c, "select", err)
	}
	order, err := orderClause(t, c.QueryParam("order"))
	if err != nil {
		return s.restError(c, "select", err)
	}

	query := "SELECT " + strings.Join(t.columns, ", ") + " FROM " + t.name + " WHERE " + where + order
	rows, err := s.db.QueryContext(c.Request().Context(), query, p.args...)
	if err != nil {
		return s.restError(c, "select "+t.name, err)
	}
	out, err := scanRows(t, rows)
	if err != nil {
		return s.restError(c, "select "+t.name, err)
	}
	return c.JSON(http.StatusOK, out)
}

// handleInsert writes rows in one transaction. The owner column is always
// the caller, whatever the body says.
func (s *Server) handleInsert(c echo.Context) error {
	t, ok := tableSpecs[c.Param("table")]
	if !ok {
		return unknownTable(c)
	}
	in, err := decodeRows(c.Request().Body)
	if err != nil {
		return s.restError(c, "insert", err)
	}
	if len(in) == 0 {
		return c.JSON(http.StatusCreated, []map[string]any{})
	}

	ctx := c.Request().Context()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internalError(c, "begin insert", err)
	}
	defer tx.Rollback()

	out := []map[string]any{}
	for _, row := range in {
		var p params
		cols := []string{t.owner}
		vals := []string{p.add(userID(c))}

		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, col := range keys {
			if col == t.owner {
				continue
			}
			if col != "id" && !slices.Contains(t.writable, col) {
				return s.restError(c, "insert", badRequest("column "+col+" is not writable"))
			}
			v, err := normalizeValue(t, col, row[col])
			if err != nil {
				return s.restError(c, "insert", err)
			}
			cols = append(cols, col)
			vals = append(vals, p.add(v))
		}

		query := "INSERT INTO " + t.name + " (" + strings.Join(cols, ", ") + ") VALUES (" +
			strings.Join(vals, ", ") + ") RETURNING " + strings.Join(t.columns, ", ")
		rows, err := tx.QueryContext(ctx, query, p.args...)
		if err != nil {
			return s.restError(c, "insert "+t.name, err)
		}
		inserted, err := scanRows(t, rows)
		if err != nil {
			return s.restError(c, "insert "+t.name, err)
		}
		out = append(out, inserted...)
	}

	if err := tx.Commit(); err != nil {
		return s.restError(c, "commit insert", err)
	}
	return c.JSON(http.StatusCreated, out)
}

func rowIDParam(c echo.Context) (string, error) {
	id, ok := strings.CutPrefix(c.QueryParam("id"), "eq.")
	if !ok {
		return "", badRequest("id=eq.<id> is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", badRequest("invalid id")
	}
	return id, nil
}

func (s *Server) handleUpdate(c echo.Context) error {
	t, ok := tableSpecs[c.Param("table")]
	if !ok {
		return unknownTable(c)
	}
	id, err := rowIDParam(c)
	if err != nil {
		return s.restError(c, "update", err)
	}
	patches, err := decodeRows(c.Request().Body)
	if err != nil {
		return s.restError(c, "update", err)
	}
	if len(patches) != 1 {
		return s.restError(c, "update", badRequest("expected one patch object"))
	}
	patch := patches[0]

	var p params
	var sets []string
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, col := range keys {
		if !slices.Contains(t.writable, col) {
			return s.restError(c, "update", badRequest("column "+col+" is not writable"))
		}
		v, err := normalizeValue(t, col, patch[col])
		if err != nil {
			return s.restError(c, "update", err)
		}
		sets = append(sets, col+" = "+p.add(v))
	}
	if _, ok := patch["updated_at"]; !ok {
		sets = append(sets, "updated_at = NOW()")
	}

	query := "UPDATE " + t.name + " SET " + strings.Join(sets, ", ") +
		" WHERE id = " + p.add(id) + " AND " + t.owner + " = " + p.add(userID(c)) +
		" RETURNING " + strings.Join(t.columns, ", ")
	rows, err := s.db.QueryContext(c.Request().Context(), query, p.args...)
	if err != nil {
		return s.restError(c, "update "+t.name, err)
	}
	out, err := scanRows(t, rows)
	if err != nil {
		return s.restError(c, "update "+t.name, err)
	}
	return c.JSON(http.StatusOK, out)
}

// handleDelete removes one row. Deleting a category that still has tasks
// fails on the foreign key and is reported as a validation error.
func (s *Server) handleDelete(c echo.Context) error {
	t, ok := tableSpecs[c.Param("table")]
	if !ok {
		return unknownTable(c)
	}
	id, err := rowIDParam(c)
	if err != nil {
		return s.restError(c, "delete", err)
	}

	query := "DELETE FROM " + t.name + " WHERE id = $1 AND " + t.owner + " = $2"
	if _, err := s.db.ExecContext(c.Request().Context(), query, id, userID(c)); err != nil {
		return s.restError(c, "delete "+t.name, err)
	}
	return c.NoContent(http.StatusNoContent)
}
