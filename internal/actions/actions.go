// Package actions performs the user's writes against the remote tables and
// refreshes the cached collections afterwards. The cache is never patched
// locally, so a failed write can never look saved.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

var (
	// ErrCategoryInUse is returned when deleting a category that still has
	// tasks. Nothing is deleted.
	ErrCategoryInUse    = errors.New("category still has tasks; delete or move them first")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTaskNotFound     = errors.New("task not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrInvalidTask      = errors.New("invalid task")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidNote      = errors.New("invalid note")
	ErrNotSignedIn      = errors.New("sign in first")
)

// Cache is the synchronized state writes are checked against and refreshed.
// *datasync.Controller satisfies it.
type Cache interface {
	Snapshot() datasync.Snapshot
	Refetch(ctx context.Context, kinds ...datasync.Kind) error
}

// Identities reports the signed-in identity. *session.Manager satisfies it.
type Identities interface {
	Identity() *model.Identity
}

// Service groups the write operations.
type Service struct {
	tables remote.Tables
	cache  Cache
	ident  Identities
	now    func() time.Time
	log    *logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(tables remote.Tables, cache Cache, ident Identities, opts ...Option) *Service {
	s := &Service{
		tables: tables,
		cache:  cache,
		ident:  ident,
		now:    time.Now,
		log:    logger.WithFields(logger.F("component", "actions")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) owner() (string, error) {
	id := s.ident.Identity()
	if id == nil {
		return "", ErrNotSignedIn
	}
	return id.ID, nil
}

func (s *Service) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// refetch reloads kinds after a successful write. A failed reload is
// recorded by the cache itself and only logged here.
func (s *Service) refetch(ctx context.Context, kinds ...datasync.Kind) {
	if err := s.cache.Refetch(ctx, kinds...); err != nil {
		s.log.Warn("Refetch after write failed", logger.F("error", err))
	}
}

func findCategory(snap datasync.Snapshot, id string) (model.Category, bool) {
	for _, c := range snap.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return model.Category{}, false
}

func findTask(snap datasync.Snapshot, id string) (model.Task, bool) {
	for _, t := range snap.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func findNote(snap datasync.Snapshot, id string) (model.Note, bool) {
	for _, n := range snap.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return model.Note{}, false
}

func firstRow[T any](rows []remote.Row, parse func(model.Row) (T, error)) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, remote.ErrNotFound
	}
	return parse(rows[0])
}

func trimmed(s string) string { return strings.TrimSpace(s) }

func invalid(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
