package actions

import (
	"context"
	"fmt"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// Defaults for new categories.
const (
	DefaultCategoryColor = "bg-gray-500"
	DefaultCategoryIcon  = "📋"
)

// CategoryInput is the editable part of a category.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
	Icon        string
	Timeline    model.Timeline
}

func checkCategory(in *CategoryInput) error {
	in.Name = trimmed(in.Name)
	if in.Name == "" {
		return invalid(ErrInvalidCategory, "name is required")
	}
	if in.Color == "" {
		in.Color = DefaultCategoryColor
	}
	if in.Icon == "" {
		in.Icon = DefaultCategoryIcon
	}
	if in.Timeline == "" {
		in.Timeline = model.Timeline3Months
	}
	if _, err := model.ParseTimeline(string(in.Timeline)); err != nil {
		return invalid(ErrInvalidCategory, "%v", err)
	}
	return nil
}

func categoryRow(in CategoryInput, order int) remote.Row {
	return model.CategoryRow(model.Category{
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
		Timeline:    in.Timeline,
		OrderIndex:  order,
	})
}

// CreateCategory adds a category after the existing ones.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	owner, err := s.owner()
	if err != nil {
		return model.Category{}, err
	}
	if err := checkCategory(&in); err != nil {
		return model.Category{}, err
	}

	row := categoryRow(in, model.NextOrderIndex(s.cache.Snapshot().Categories))
	row["user_id"] = owner

	rows, err := s.tables.Insert(ctx, remote.TableCategories, []remote.Row{row})
	if err != nil {
		return model.Category{}, fmt.Errorf("create category: %w", err)
	}
	cat, err := firstRow(rows, model.ParseCategory)
	if err != nil {
		s.log.Warn("Created category came back unreadable", logger.F("error", err))
	}

	s.refetch(ctx, datasync.KindCategories)
	return cat, nil
}

// UpdateCategory replaces the editable fields of a cached category, keeping
// its position.
func (s *Service) UpdateCategory(ctx context.Context, id string, in CategoryInput) error {
	current, ok := findCategory(s.cache.Snapshot(), id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, id)
	}
	if err := checkCategory(&in); err != nil {
		return err
	}

	patch := categoryRow(in, current.OrderIndex)
	patch["updated_at"] = s.stamp()
	if _, err := s.tables.Update(ctx, remote.TableCategories, patch, id); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	s.refetch(ctx, datasync.KindCategories)
	return nil
}

// DeleteCategory removes a category that owns no tasks. The task count is
// read from the store, not the cache, and a category with tasks fails with
// ErrCategoryInUse before any delete is sent.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	owner, err := s.owner()
	if err != nil {
		return err
	}

	tasks, err := s.tables.Select(ctx, remote.Query{
		Table:   remote.TableTasks,
		Filters: []remote.Filter{remote.Eq("user_id", owner), remote.Eq("category_id", id)},
	})
	if err != nil {
		return fmt.Errorf("check category tasks: %w", err)
	}
	if len(tasks) > 0 {
		s.log.Info("Refused to delete category with tasks", logger.F("category_id", id), logger.F("tasks", len(tasks)))
		return ErrCategoryInUse
	}

	if err := s.tables.Delete(ctx, remote.TableCategories, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.log.Info("Category deleted", logger.F("category_id", id))
	s.refetch(ctx, datasync.KindCategories)
	return nil
}
