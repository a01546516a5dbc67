package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

var seedColumns = []string{"user_id", "name", "description", "color", "icon", "timeline", "order_index", "seed_key"}

var seedInsert = "INSERT INTO categories (" + strings.Join(seedColumns, ", ") + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (user_id, seed_key) DO NOTHING`

// handleSeedCategories inserts the default categories for the caller unless
// they already exist and returns all of the caller's categories. Concurrent
// calls converge on a single seed set.
func (s *Server) handleSeedCategories(c echo.Context) error {
	uid := userID(c)
	ctx := c.Request().Context()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internalError(c, "begin seed", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, row := range model.SeedRows(uid) {
		args := make([]any, len(seedColumns))
		for i, col := range seedColumns {
			args[i] = row[col]
		}
		res, err := tx.ExecContext(ctx, seedInsert, args...)
		if err != nil {
			return internalError(c, "seed category", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return internalError(c, "commit seed", err)
	}
	if inserted > 0 {
		logger.Info("Seeded categories", logger.F("user_id", uid), logger.F("inserted", inserted))
	}

	t := tableSpecs[remote.TableCategories]
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+strings.Join(t.columns, ", ")+" FROM categories WHERE user_id = $1 ORDER BY order_index ASC, created_at ASC",
		uid)
	if err != nil {
		return internalError(c, "select categories", err)
	}
	out, err := scanRows(t, rows)
	if err != nil {
		return internalError(c, "select categories", err)
	}
	return c.JSON(http.StatusOK, out)
}
