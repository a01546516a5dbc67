package actions

import (
	"context"
	"fmt"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// TaskInput is the editable part of a task.
type TaskInput struct {
	Title         string
	Description   string
	CategoryID    string
	Priority      model.Priority
	DueDate       *model.Date
	VenueLocation string
	IsImportant   bool
}

func (s *Service) checkTask(snap datasync.Snapshot, in *TaskInput) error {
	in.Title = trimmed(in.Title)
	if in.Title == "" {
		return invalid(ErrInvalidTask, "title is required")
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if in.Priority.Rank() == 0 {
		return invalid(ErrInvalidTask, "unknown priority %q", in.Priority)
	}
	if _, ok := findCategory(snap, in.CategoryID); !ok {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, in.CategoryID)
	}
	return nil
}

func taskRow(in TaskInput) remote.Row {
	return model.TaskRow(model.Task{
		CategoryID:    in.CategoryID,
		Title:         in.Title,
		Description:   in.Description,
		Priority:      in.Priority,
		DueDate:       in.DueDate,
		VenueLocation: trimmed(in.VenueLocation),
		IsImportant:   in.IsImportant,
	})
}

// CreateTask adds an open task at the end of the list. The category must be
// one of the cached categories.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	owner, err := s.owner()
	if err != nil {
		return model.Task{}, err
	}
	if err := s.checkTask(s.cache.Snapshot(), &in); err != nil {
		return model.Task{}, err
	}

	row := taskRow(in)
	row["user_id"] = owner
	row["completed"] = false
	row["order_index"] = model.NewTaskOrderIndex

	rows, err := s.tables.Insert(ctx, remote.TableTasks, []remote.Row{row})
	if err != nil {
		return model.Task{}, fmt.Errorf("create task: %w", err)
	}
	task, err := firstRow(rows, model.ParseTask)
	if err != nil {
		s.log.Warn("Created task came back unreadable", logger.F("error", err))
	}

	s.log.Info("Task created", logger.F("task_id", task.ID), logger.F("category_id", in.CategoryID))
	s.refetch(ctx, datasync.KindTasks)
	return task, nil
}

// UpdateTask replaces the editable fields of a cached task.
func (s *Service) UpdateTask(ctx context.Context, id string, in TaskInput) error {
	snap := s.cache.Snapshot()
	current, ok := findTask(snap, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if err := s.checkTask(snap, &in); err != nil {
		return err
	}

	patch := taskRow(in)
	delete(patch, "order_index")
	patch["completed"] = current.Completed
	patch["updated_at"] = s.stamp()

	if _, err := s.tables.Update(ctx, remote.TableTasks, patch, id); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	s.refetch(ctx, datasync.KindTasks)
	return nil
}

// ToggleTask flips the completed flag and returns the new value. Only
// completed and updated_at are written.
func (s *Service) ToggleTask(ctx context.Context, id string) (bool, error) {
	current, ok := findTask(s.cache.Snapshot(), id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	done := !current.Completed
	patch := remote.Row{"completed": done, "updated_at": s.stamp()}
	if _, err := s.tables.Update(ctx, remote.TableTasks, patch, id); err != nil {
		return current.Completed, fmt.Errorf("toggle task: %w", err)
	}
	s.refetch(ctx, datasync.KindTasks)
	return done, nil
}

// DeleteTask removes a task. Its notes go with it, so notes are reloaded too.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if err := s.tables.Delete(ctx, remote.TableTasks, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.log.Info("Task deleted", logger.F("task_id", id))
	s.refetch(ctx, datasync.KindTasks, datasync.KindNotes)
	return nil
}

// AddSuggestion creates a task from a canned suggestion.
func (s *Service) AddSuggestion(ctx context.Context, categoryID string, sg model.Suggestion) (model.Task, error) {
	return s.CreateTask(ctx, TaskInput{
		Title:       sg.Title,
		Description: sg.Description,
		CategoryID:  categoryID,
		Priority:    sg.Priority,
	})
}
