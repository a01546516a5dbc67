package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func restPath(table string) string {
	return "/rest/v1/" + url.PathEscape(table)
}

// Encode renders q as store query parameters: col=eq.value and
// order=col.asc|desc.
func (q Query) Encode() url.Values {
	v := url.Values{}
	for _, f := range q.Filters {
		v.Add(f.Column, "eq."+f.Value)
	}
	if q.Order != "" {
		dir := "asc"
		if q.Descending {
			dir = "desc"
		}
		v.Set("order", q.Order+"."+dir)
	}
	return v
}

// Select reads rows matching q.
func (c *Client) Select(ctx context.Context, q Query) ([]Row, error) {
	var rows []Row
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   restPath(q.Table),
		query:  q.Encode(),
		auth:   true,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	return rows, nil
}

// Insert writes rows and returns them as stored.
func (c *Client) Insert(ctx context.Context, table string, rows []Row) ([]Row, error) {
	var out []Row
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   restPath(table),
		body:   rows,
		auth:   true,
		header: http.Header{"Prefer": {"return=representation"}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	return out, nil
}

// Update applies patch to the row with id.
func (c *Client) Update(ctx context.Context, table string, patch Row, id string) ([]Row, error) {
	var out []Row
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   restPath(table),
		query:  url.Values{"id": {"eq." + id}},
		body:   patch,
		auth:   true,
		header: http.Header{"Prefer": {"return=representation"}},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}
	return out, nil
}

// Delete removes the row with id.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   restPath(table),
		query:  url.Values{"id": {"eq." + id}},
		auth:   true,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// SeedCategories calls the idempotent seeding procedure.
func (c *Client) SeedCategories(ctx context.Context) ([]Row, error) {
	var out []Row
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/seed_categories",
		body:   map[string]any{},
		auth:   true,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("seed categories: %w", err)
	}
	return out, nil
}
