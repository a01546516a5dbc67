package model

import (
	"errors"
	"time"
)

var (
	ErrGeneralNoteWithTask = errors.New("general note cannot reference a task")
	ErrTaskNoteWithoutTask = errors.New("task note requires a task")
	ErrEmptyNoteContent    = errors.New("note content is required")
)

// Note is free text attached to the account or to one task.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	IsGeneral bool      `json:"is_general"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the general/task partition and required content.
func (n *Note) Validate() error {
	if n.Content == "" {
		return ErrEmptyNoteContent
	}
	if n.IsGeneral && n.TaskID != "" {
		return ErrGeneralNoteWithTask
	}
	if !n.IsGeneral && n.TaskID == "" {
		return ErrTaskNoteWithoutTask
	}
	return nil
}
