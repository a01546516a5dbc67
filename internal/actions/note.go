package actions

import (
	"context"
	"fmt"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// NoteInput is the editable part of a note. TaskID is ignored for general
// notes.
type NoteInput struct {
	Title     string
	Content   string
	TaskID    string
	IsGeneral bool
}

func (s *Service) noteRow(in NoteInput) (remote.Row, error) {
	n := model.Note{
		Title:     trimmed(in.Title),
		Content:   trimmed(in.Content),
		IsGeneral: in.IsGeneral,
	}
	if !in.IsGeneral {
		n.TaskID = in.TaskID
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNote, err)
	}
	if !n.IsGeneral {
		if _, ok := findTask(s.cache.Snapshot(), n.TaskID); !ok {
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, n.TaskID)
		}
	}
	return model.NoteRow(n), nil
}

// CreateNote adds a general note or one attached to a cached task.
func (s *Service) CreateNote(ctx context.Context, in NoteInput) (model.Note, error) {
	owner, err := s.owner()
	if err != nil {
		return model.Note{}, err
	}
	row, err := s.noteRow(in)
	if err != nil {
		return model.Note{}, err
	}
	row["user_id"] = owner

	rows, err := s.tables.Insert(ctx, remote.TableNotes, []remote.Row{row})
	if err != nil {
		return model.Note{}, fmt.Errorf("create note: %w", err)
	}
	note, _ := firstRow(rows, model.ParseNote)
	s.refetch(ctx, datasync.KindNotes)
	return note, nil
}

// UpdateNote replaces a cached note's fields.
func (s *Service) UpdateNote(ctx context.Context, id string, in NoteInput) error {
	if _, ok := findNote(s.cache.Snapshot(), id); !ok {
		return fmt.Errorf("%w: %s", ErrNoteNotFound, id)
	}
	patch, err := s.noteRow(in)
	if err != nil {
		return err
	}
	patch["updated_at"] = s.stamp()

	if _, err := s.tables.Update(ctx, remote.TableNotes, patch, id); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	s.refetch(ctx, datasync.KindNotes)
	return nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	if err := s.tables.Delete(ctx, remote.TableNotes, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	s.refetch(ctx, datasync.KindNotes)
	return nil
}
