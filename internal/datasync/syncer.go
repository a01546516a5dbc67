// Package datasync keeps the signed-in user's categories, tasks and notes
// cached as full snapshots of the remote tables.
package datasync

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// Kind names one of the synchronized collections.
type Kind int

const (
	KindCategories Kind = iota
	KindTasks
	KindNotes
	kindCount
)

// AllKinds lists every collection.
var AllKinds = []Kind{KindCategories, KindTasks, KindNotes}

func (k Kind) String() string {
	switch k {
	case KindCategories:
		return "categories"
	case KindTasks:
		return "tasks"
	case KindNotes:
		return "notes"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by fetches on a torn down Syncer.
var ErrClosed = errors.New("syncer closed")

// Snapshot is a point-in-time copy of the cached collections.
type Snapshot struct {
	Categories []model.Category
	Tasks      []model.Task
	Notes      []model.Note
	Loading    bool
	Errors     map[Kind]error
	// Version increases on every change and identifies the snapshot's
	// collections for memoized views.
	Version uint64
}

// Err returns the error of the last fetch of kind, or nil.
func (s Snapshot) Err(kind Kind) error {
	return s.Errors[kind]
}

// Syncer caches the collections of one identity. A new Syncer is created
// for every identity; after Close, in-flight results are dropped.
type Syncer struct {
	tables   remote.Tables
	owner    string
	log      *logger.Logger
	onChange func()

	mu         sync.Mutex
	closed     bool
	pending    int
	categories []model.Category
	tasks      []model.Task
	notes      []model.Note
	errs       [kindCount]error
	issued     [kindCount]uint64
	version    uint64
}

// Option configures a Syncer or Controller.
type Option func(*options)

type options struct {
	onChange func()
}

// WithOnChange registers fn to run after every cache change. fn runs outside
// internal locks and may read snapshots.
func WithOnChange(fn func()) Option {
	return func(o *options) { o.onChange = fn }
}

// NewSyncer creates a Syncer for the identity's rows.
func NewSyncer(tables remote.Tables, identity *model.Identity, opts ...Option) *Syncer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Syncer{
		tables:   tables,
		owner:    identity.ID,
		log:      logger.WithFields(logger.F("component", "datasync"), logger.F("user_id", identity.ID)),
		onChange: o.onChange,
	}
}

// Owner returns the identity id the Syncer is scoped to.
func (s *Syncer) Owner() string {
	return s.owner
}

func (s *Syncer) ownerQuery(table, order string, desc bool) remote.Query {
	return remote.Query{
		Table:      table,
		Filters:    []remote.Filter{remote.Eq("user_id", s.owner)},
		Order:      order,
		Descending: desc,
	}
}

// begin records a new request for kind and returns its ticket.
func (s *Syncer) begin(kind Kind) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.issued[kind]++
	return s.issued[kind], nil
}

// settle applies the outcome of request ticket for kind. Results of closed
// syncers and of requests overtaken by a newer one of the same kind are
// dropped. set runs under the lock when err is nil.
func (s *Syncer) settle(kind Kind, ticket uint64, err error, set func()) {
	s.mu.Lock()
	if s.closed || ticket != s.issued[kind] {
		s.mu.Unlock()
		s.log.Debug("Dropped stale fetch result", logger.F("kind", kind.String()))
		return
	}
	if err != nil {
		s.errs[kind] = err
		switch kind {
		case KindCategories:
			s.categories = nil
		case KindTasks:
			s.tasks = nil
		case KindNotes:
			s.notes = nil
		}
	} else {
		s.errs[kind] = nil
		set()
	}
	s.version++
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("Fetch failed", logger.F("kind", kind.String()), logger.F("error", err))
	}
	s.changed()
}

func (s *Syncer) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// FetchCategories reloads categories ordered by order index. An empty
// collection is seeded with the default set, and the seeded rows are
// adopted. On failure the collection is emptied, the error recorded, and
// returned.
func (s *Syncer) FetchCategories(ctx context.Context) error {
	ticket, err := s.begin(KindCategories)
	if err != nil {
		return err
	}

	rows, err := s.tables.Select(ctx, s.ownerQuery(remote.TableCategories, "order_index", false))
	if err == nil && len(rows) == 0 {
		s.log.Info("No categories yet, seeding defaults")
		rows, err = s.tables.SeedCategories(ctx)
	}

	var cats []model.Category
	if err == nil {
		cats = parseRows(s, KindCategories, rows, model.ParseCategory)
		sortByOrder(cats, func(c model.Category) (int, int64) { return c.OrderIndex, c.CreatedAt.UnixNano() })
	}
	s.settle(KindCategories, ticket, err, func() { s.categories = cats })
	return err
}

// FetchTasks reloads tasks ordered by order index.
func (s *Syncer) FetchTasks(ctx context.Context) error {
	ticket, err := s.begin(KindTasks)
	if err != nil {
		return err
	}

	rows, err := s.tables.Select(ctx, s.ownerQuery(remote.TableTasks, "order_index", false))
	var tasks []model.Task
	if err == nil {
		tasks = parseRows(s, KindTasks, rows, model.ParseTask)
		sortByOrder(tasks, func(t model.Task) (int, int64) { return t.OrderIndex, t.CreatedAt.UnixNano() })
	}
	s.settle(KindTasks, ticket, err, func() { s.tasks = tasks })
	return err
}

// FetchNotes reloads notes, newest first.
func (s *Syncer) FetchNotes(ctx context.Context) error {
	ticket, err := s.begin(KindNotes)
	if err != nil {
		return err
	}

	rows, err := s.tables.Select(ctx, s.ownerQuery(remote.TableNotes, "created_at", true))
	var notes []model.Note
	if err == nil {
		notes = parseRows(s, KindNotes, rows, model.ParseNote)
		slices.SortStableFunc(notes, func(a, b model.Note) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	}
	s.settle(KindNotes, ticket, err, func() { s.notes = notes })
	return err
}

// Fetch reloads one collection.
func (s *Syncer) Fetch(ctx context.Context, kind Kind) error {
	switch kind {
	case KindCategories:
		return s.FetchCategories(ctx)
	case KindTasks:
		return s.FetchTasks(ctx)
	case KindNotes:
		return s.FetchNotes(ctx)
	}
	return nil
}

// Refetch reloads the given collections concurrently, or all of them when
// none are named. It returns the first error after all fetches settle.
func (s *Syncer) Refetch(ctx context.Context, kinds ...Kind) error {
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	var g errgroup.Group
	for _, k := range kinds {
		g.Go(func() error { return s.Fetch(ctx, k) })
	}
	return g.Wait()
}

// Load marks the Syncer loading and fetches all three collections
// concurrently. Loading stays true until every fetch has settled.
func (s *Syncer) Load(ctx context.Context) error {
	if !s.beginLoad() {
		return ErrClosed
	}
	return s.runLoad(ctx)
}

func (s *Syncer) beginLoad() bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending++
	s.version++
	s.mu.Unlock()
	s.changed()
	return true
}

func (s *Syncer) runLoad(ctx context.Context) error {
	err := s.Refetch(ctx)

	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.pending--
		s.version++
	}
	s.mu.Unlock()

	if !closed {
		s.changed()
		s.log.Debug("Load settled", logger.F("error", err))
	}
	return err
}

// Loading reports whether a Load is in progress.
func (s *Syncer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Err returns the error of the last fetch of kind.
func (s *Syncer) Err(kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs[kind]
}

func (s *Syncer) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.categories)
}

func (s *Syncer) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.tasks)
}

func (s *Syncer) Notes() []model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notes)
}

// Snapshot copies the current state.
func (s *Syncer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Categories: slices.Clone(s.categories),
		Tasks:      slices.Clone(s.tasks),
		Notes:      slices.Clone(s.notes),
		Loading:    s.pending > 0,
		Errors:     make(map[Kind]error),
		Version:    s.version,
	}
	for k, err := range s.errs {
		if err != nil {
			snap.Errors[Kind(k)] = err
		}
	}
	return snap
}

// Close tears the Syncer down. Results of fetches still in flight are
// discarded when they complete.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.pending = 0
	s.categories, s.tasks, s.notes = nil, nil, nil
}

// parseRows validates each row, logging and dropping invalid ones.
func parseRows[T any](s *Syncer, kind Kind, rows []remote.Row, parse func(model.Row) (T, error)) []T {
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := parse(r)
		if err != nil {
			s.log.Warn("Dropping invalid row", logger.F("kind", kind.String()), logger.F("index", i), logger.F("error", err))
			continue
		}
		out = append(out, v)
	}
	return out
}

// sortByOrder orders by order index, breaking ties by creation time.
func sortByOrder[T any](items []T, key func(T) (int, int64)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ai, ac := key(a)
		bi, bc := key(b)
		if c := cmp.Compare(ai, bi); c != 0 {
			return c
		}
		return cmp.Compare(ac, bc)
	})
}
