// Package remotetest provides an in-memory remote.Store for tests.
package remotetest

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

type account struct {
	id       string
	email    string
	password string
	name     string
}

// Call records one table operation.
type Call struct {
	Op    string // select, insert, update, delete, seed
	Table string
	Query remote.Query
	ID    string
}

// Store is a remote.Store backed by maps. The zero value is not usable; use
// New.
type Store struct {
	notifier *remote.Notifier

	mu       sync.Mutex
	accounts map[string]*account // by email
	session  *remote.Session
	tables   map[string][]remote.Row
	calls    []Call
	clock    time.Time

	// Errors returned by the matching operation, keyed "op:table" such as
	// "select:tasks", or "op" for auth calls such as "signin".
	failures map[string]error

	// BeforeSelect, when set, runs before a select reads its rows. Tests use
	// it to hold a fetch in flight.
	BeforeSelect func(ctx context.Context, q remote.Query)

	// ConfirmSignUp makes SignUp return no session.
	ConfirmSignUp bool
}

var _ remote.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		notifier: remote.NewNotifier(),
		accounts: make(map[string]*account),
		tables:   make(map[string][]remote.Row),
		failures: make(map[string]error),
		clock:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddUser creates an account without signing in and returns its id.
func (s *Store) AddUser(email, password, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := &account{id: uuid.NewString(), email: email, password: password, name: name}
	s.accounts[email] = acc
	s.tables[remote.TableProfiles] = append(s.tables[remote.TableProfiles], remote.Row{
		"id": acc.id, "wedding_date": nil,
	})
	return acc.id
}

// SignInAs installs a session for an existing account and emits SignedIn.
func (s *Store) SignInAs(email string) *remote.Session {
	s.mu.Lock()
	acc := s.accounts[email]
	if acc == nil {
		s.mu.Unlock()
		panic("remotetest: unknown account " + email)
	}
	sess := s.newSession(acc)
	s.mu.Unlock()
	s.notifier.Emit(remote.EventSignedIn, sess)
	return sess
}

// Emit pushes an arbitrary auth event, as the store does on token refresh
// or external sign out.
func (s *Store) Emit(kind remote.EventKind, sess *remote.Session) remote.Event {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return s.notifier.Emit(kind, sess)
}

// Flush waits for queued auth events to be delivered.
func (s *Store) Flush() { s.notifier.Flush() }

// Fail makes the operation named key return err until cleared with nil.
func (s *Store) Fail(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, key)
		return
	}
	s.failures[key] = err
}

// Calls returns the recorded table operations.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CountCalls counts recorded operations with op on table.
func (s *Store) CountCalls(op, table string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op && c.Table == table {
			n++
		}
	}
	return n
}

// Rows returns a copy of every row in table regardless of owner.
func (s *Store) Rows(table string) []remote.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remote.Row, 0, len(s.tables[table]))
	for _, r := range s.tables[table] {
		out = append(out, maps.Clone(r))
	}
	return out
}

// Put stores a raw row as is, bypassing validation and ownership.
func (s *Store) Put(table string, row remote.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], maps.Clone(row))
}

func (s *Store) failure(key string) error {
	return s.failures[key]
}

func (s *Store) tick() string {
	s.clock = s.clock.Add(time.Second)
	return s.clock.Format(time.RFC3339Nano)
}

func (s *Store) newSession(acc *account) *remote.Session {
	sess := &remote.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    s.clock.Add(time.Hour),
		User:         remote.User{ID: acc.id, Email: acc.email, Name: acc.name},
	}
	s.session = sess
	c := *sess
	return &c
}

func (s *Store) SignUp(_ context.Context, email, password string, attrs map[string]any) (*remote.Session, error) {
	s.mu.Lock()
	if err := s.failure("signup"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if _, ok := s.accounts[email]; ok {
		s.mu.Unlock()
		return nil, &remote.APIError{Status: 422, Code: remote.CodeUserExists, Message: "User already registered"}
	}
	s.mu.Unlock()

	name, _ := attrs["name"].(string)
	s.AddUser(email, password, name)
	if s.ConfirmSignUp {
		return nil, nil
	}
	return s.SignInAs(email), nil
}

func (s *Store) SignInWithPassword(_ context.Context, email, password string) (*remote.Session, error) {
	s.mu.Lock()
	if err := s.failure("signin"); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	acc := s.accounts[email]
	s.mu.Unlock()
	if acc == nil || acc.password != password {
		return nil, &remote.APIError{Status: 400, Code: remote.CodeInvalidCredentials, Message: "Invalid login credentials"}
	}
	return s.SignInAs(email), nil
}

func (s *Store) SignOut(_ context.Context) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil
	}
	s.session = nil
	s.mu.Unlock()
	s.notifier.Emit(remote.EventSignedOut, nil)
	return nil
}

func (s *Store) GetSession(_ context.Context) (*remote.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("session"); err != nil {
		return nil, err
	}
	if s.session == nil {
		return nil, nil
	}
	c := *s.session
	return &c, nil
}

func (s *Store) UpdatePassword(_ context.Context, password string) error {
	s.mu.Lock()
	if err := s.failure("password"); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.session == nil {
		s.mu.Unlock()
		return remote.ErrNotSignedIn
	}
	for _, acc := range s.accounts {
		if acc.id == s.session.User.ID {
			acc.password = password
		}
	}
	sess := *s.session
	s.mu.Unlock()
	s.notifier.Emit(remote.EventUserUpdated, &sess)
	return nil
}

func (s *Store) OnSessionChange(fn func(remote.Event)) func() {
	return s.notifier.Subscribe(fn)
}

func ownerColumn(table string) string {
	if table == remote.TableProfiles {
		return "id"
	}
	return "user_id"
}

// owner returns the signed-in user id or ErrNotSignedIn. Callers hold mu.
func (s *Store) owner() (string, error) {
	if s.session == nil {
		return "", remote.ErrNotSignedIn
	}
	return s.session.User.ID, nil
}

func matches(r remote.Row, filters []remote.Filter) bool {
	for _, f := range filters {
		v := r[f.Column]
		if v == nil || fmt.Sprint(v) != f.Value {
			return false
		}
	}
	return true
}

func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	ai, aok := a.(int)
	bi, bok := b.(int)
	if aok && bok {
		return cmp.Compare(ai, bi)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func (s *Store) Select(ctx context.Context, q remote.Query) ([]remote.Row, error) {
	if hook := s.BeforeSelect; hook != nil {
		hook(ctx, q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "select", Table: q.Table, Query: q})
	if err := s.failure("select:" + q.Table); err != nil {
		return nil, err
	}
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}

	var out []remote.Row
	for _, r := range s.tables[q.Table] {
		if fmt.Sprint(r[ownerColumn(q.Table)]) != owner || !matches(r, q.Filters) {
			continue
		}
		out = append(out, maps.Clone(r))
	}
	if q.Order != "" {
		slices.SortStableFunc(out, func(a, b remote.Row) int {
			c := compareValues(a[q.Order], b[q.Order])
			if q.Descending {
				return -c
			}
			return c
		})
	}
	return out, nil
}

func (s *Store) Insert(_ context.Context, table string, rows []remote.Row) ([]remote.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "insert", Table: table})
	if err := s.failure("insert:" + table); err != nil {
		return nil, err
	}
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}

	out := make([]remote.Row, 0, len(rows))
	for _, r := range rows {
		stored := maps.Clone(r)
		if stored["id"] == nil {
			stored["id"] = uuid.NewString()
		}
		stored[ownerColumn(table)] = owner
		now := s.tick()
		stored["created_at"] = now
		stored["updated_at"] = now
		s.tables[table] = append(s.tables[table], stored)
		out = append(out, maps.Clone(stored))
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, table string, patch remote.Row, id string) ([]remote.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "update", Table: table, ID: id})
	if err := s.failure("update:" + table); err != nil {
		return nil, err
	}
	owner, err := s.owner()
	if err != nil {
		return nil, err
	}

	var out []remote.Row
	for _, r := range s.tables[table] {
		if r["id"] != id || fmt.Sprint(r[ownerColumn(table)]) != owner {
			continue
		}
		for k, v := range patch {
			if k == "id" || k == ownerColumn(table) {
				continue
			}
			r[k] = v
		}
		r["updated_at"] = s.tick()
		out = append(out, maps.Clone(r))
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, table, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "delete", Table: table, ID: id})
	if err := s.failure("delete:" + table); err != nil {
		return err
	}
	owner, err := s.owner()
	if err != nil {
		return err
	}
	s.tables[table] = slices.DeleteFunc(s.tables[table], func(r remote.Row) bool {
		return r["id"] == id && fmt.Sprint(r[ownerColumn(table)]) == owner
	})
	return nil
}

// SeedCategories inserts the default set once per owner, keyed by seed_key.
func (s *Store) SeedCategories(ctx context.Context) ([]remote.Row, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: "seed", Table: remote.TableCategories})
	if err := s.failure("seed:" + remote.TableCategories); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	owner, err := s.owner()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	seeded := make(map[string]bool)
	for _, r := range s.tables[remote.TableCategories] {
		if r["user_id"] == owner && r["seed_key"] != nil {
			seeded[fmt.Sprint(r["seed_key"])] = true
		}
	}
	for _, r := range model.SeedRows(owner) {
		if seeded[fmt.Sprint(r["seed_key"])] {
			continue
		}
		r["id"] = uuid.NewString()
		now := s.tick()
		r["created_at"] = now
		r["updated_at"] = now
		s.tables[remote.TableCategories] = append(s.tables[remote.TableCategories], r)
	}
	s.mu.Unlock()

	return s.selectUnrecorded(ctx, remote.Query{
		Table:   remote.TableCategories,
		Filters: []remote.Filter{remote.Eq("user_id", owner)},
		Order:   "order_index",
	})
}

func (s *Store) selectUnrecorded(_ context.Context, q remote.Query) ([]remote.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []remote.Row
	for _, r := range s.tables[q.Table] {
		if matches(r, q.Filters) {
			out = append(out, maps.Clone(r))
		}
	}
	slices.SortStableFunc(out, func(a, b remote.Row) int {
		return compareValues(a[q.Order], b[q.Order])
	})
	return out, nil
}

// Patch sets columns on the row with id, bypassing ownership.
func (s *Store) Patch(table, id string, patch remote.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.tables[table] {
		if r["id"] == id {
			maps.Copy(r, patch)
		}
	}
}
