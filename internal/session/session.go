// Package session owns the signed-in identity: login, registration,
// logout, profile fields, and keeping the identity in step with the auth
// events pushed by the store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// MinPasswordLength is the shortest password accepted before calling the store.
const MinPasswordLength = 6

var (
	ErrNoIdentity          = errors.New("no signed-in user")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConfirmationPending = errors.New("check your email to confirm the account")
	ErrAlreadyStarted      = errors.New("session manager already started")
)

// Manager tracks the current identity. Create with NewManager and call
// Start once before use.
type Manager struct {
	auth   remote.Auth
	tables remote.Tables
	log    *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	unsub  func()

	// applyMu serializes identity changes together with listener calls so
	// listeners observe changes in order.
	applyMu sync.Mutex

	mu        sync.Mutex
	started   bool
	gen       uint64
	identity  *model.Identity
	hydrated  bool
	changed   chan struct{}
	ready     chan struct{}
	listeners map[int]func(*model.Identity)
	nextID    int

	// profileWrites counts wedding date saves; a hydration that read the
	// profile before the latest save keeps the cached date.
	profileWrites uint64
}

// NewManager creates a Manager over the store's auth and profile table.
func NewManager(auth remote.Auth, tables remote.Tables) *Manager {
	return &Manager{
		auth:      auth,
		tables:    tables,
		log:       logger.WithFields(logger.F("component", "session")),
		changed:   make(chan struct{}),
		ready:     make(chan struct{}),
		listeners: make(map[int]func(*model.Identity)),
	}
}

// Start subscribes to auth events, restores any existing session and
// hydrates its profile, then closes Ready. Errors restoring the session are
// logged and leave the manager signed out.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.unsub = m.auth.OnSessionChange(m.handleEvent)

	s, err := m.auth.GetSession(ctx)
	if err != nil {
		m.log.Warn("Could not restore session", logger.F("error", err))
	}
	if s != nil {
		m.applyHydration(gen, m.hydrate(ctx, s.User))
	}

	close(m.ready)
	m.log.Debug("Session ready", logger.F("signed_in", s != nil))
	return nil
}

// Ready is closed once Start has finished bootstrapping.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Close stops listening for auth events and abandons pending hydrations.
func (m *Manager) Close() {
	if m.unsub != nil {
		m.unsub()
	}
	if m.cancel != nil {
		m.cancel()
	}
}

// Identity returns a copy of the current identity, or nil when signed out.
func (m *Manager) Identity() *model.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyIdentity(m.identity)
}

// Subscribe registers fn to be called with the new identity after every
// change. fn runs synchronously and must not call Login, Logout or Register.
func (m *Manager) Subscribe(fn func(*model.Identity)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *Manager) handleEvent(ev remote.Event) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	ctx := m.ctx
	current := m.identity
	if ev.Session != nil {
		m.hydrated = false
	}
	m.mu.Unlock()

	m.log.Debug("Auth event", logger.F("kind", ev.Kind.String()), logger.F("seq", ev.Seq))

	if ev.Session == nil {
		m.apply(gen, nil, true)
		return
	}

	user := ev.Session.User
	if current == nil || current.ID != user.ID {
		m.apply(gen, &model.Identity{ID: user.ID, Email: user.Email, Name: user.Name}, false)
	}

	go func() {
		if !m.applyHydration(gen, m.hydrate(ctx, user)) {
			m.log.Debug("Dropped stale profile", logger.F("seq", ev.Seq), logger.F("user_id", user.ID))
		}
	}()
}

// hydration is an identity read from the profile table together with the
// profile write count observed before the read.
type hydration struct {
	id     *model.Identity
	writes uint64
}

// hydrate builds the identity for user, reading the wedding date from the
// profile. Failures degrade to an identity without profile fields.
func (m *Manager) hydrate(ctx context.Context, user remote.User) hydration {
	m.mu.Lock()
	h := hydration{
		id:     &model.Identity{ID: user.ID, Email: user.Email, Name: user.Name},
		writes: m.profileWrites,
	}
	m.mu.Unlock()
	id := h.id

	rows, err := m.tables.Select(ctx, remote.Query{
		Table:   remote.TableProfiles,
		Filters: []remote.Filter{remote.Eq("id", user.ID)},
	})
	if err != nil {
		m.log.Warn("Profile fetch failed", logger.F("user_id", user.ID), logger.F("error", err))
		return h
	}
	if len(rows) == 0 {
		return h
	}

	p, err := model.ParseProfile(rows[0])
	if err != nil {
		m.log.Warn("Ignoring invalid profile row", logger.F("user_id", user.ID), logger.F("error", err))
		return h
	}
	id.WeddingDate = p.WeddingDate
	return h
}

// apply installs id if gen is still the latest generation. It reports
// whether the identity was applied.
func (m *Manager) apply(gen uint64, id *model.Identity, hydrated bool) bool {
	return m.commit(gen, id, hydrated, nil)
}

// applyHydration installs a hydrated identity. When the wedding date was
// saved after the profile was read, the saved date wins over the read.
func (m *Manager) applyHydration(gen uint64, h hydration) bool {
	return m.commit(gen, h.id, true, &h.writes)
}

func (m *Manager) commit(gen uint64, id *model.Identity, hydrated bool, writesSeen *uint64) bool {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return false
	}
	if writesSeen != nil && *writesSeen != m.profileWrites &&
		id != nil && m.identity != nil && m.identity.ID == id.ID {
		id = copyIdentity(id)
		id.WeddingDate = copyIdentity(m.identity).WeddingDate
	}
	changed := !sameIdentity(m.identity, id)
	m.identity = copyIdentity(id)
	m.hydrated = hydrated
	close(m.changed)
	m.changed = make(chan struct{})
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(copyIdentity(id))
		}
	}
	return true
}

// bump starts a new generation, invalidating in-flight hydrations.
func (m *Manager) bump() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	return m.gen
}

func (m *Manager) snapshotListeners() []func(*model.Identity) {
	out := make([]func(*model.Identity), 0, len(m.listeners))
	for i := 0; i < m.nextID; i++ {
		if fn, ok := m.listeners[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// waitFor blocks until the hydrated identity of userID is current.
func (m *Manager) waitFor(ctx context.Context, userID string) (*model.Identity, error) {
	for {
		m.mu.Lock()
		if m.identity != nil && m.identity.ID == userID && m.hydrated {
			id := copyIdentity(m.identity)
			m.mu.Unlock()
			return id, nil
		}
		ch := m.changed
		m.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email %q is not valid", ErrInvalidInput, email)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// Login signs in and returns the hydrated identity. Errors are not retried.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Identity, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}

	s, err := m.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		m.log.Info("Login failed", logger.F("email", email), logger.F("error", err))
		return nil, err
	}
	return m.waitFor(ctx, s.User.ID)
}

// Register creates an account. When the store signs the new account in
// right away the hydrated identity is returned; otherwise
// ErrConfirmationPending.
func (m *Manager) Register(ctx context.Context, email, password, name string) (*model.Identity, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	s, err := m.auth.SignUp(ctx, email, password, map[string]any{"name": name})
	if err != nil {
		m.log.Info("Registration failed", logger.F("email", email), logger.F("error", err))
		return nil, err
	}
	if s == nil {
		return nil, ErrConfirmationPending
	}
	return m.waitFor(ctx, s.User.ID)
}

// Logout ends the session and clears the identity. Calling it while signed
// out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.auth.SignOut(ctx); err != nil {
		m.log.Warn("Sign out failed", logger.F("error", err))
	}
	m.apply(m.bump(), nil, true)
	return nil
}

// UpdateWeddingDate stores date on the profile, then updates the cached
// identity. A nil date clears it. On failure the cache is left unchanged.
func (m *Manager) UpdateWeddingDate(ctx context.Context, date *model.Date) error {
	current := m.Identity()
	if current == nil {
		return ErrNoIdentity
	}

	var value any
	if date != nil {
		value = date.String()
	}

	rows, err := m.tables.Update(ctx, remote.TableProfiles, remote.Row{"wedding_date": value}, current.ID)
	if err == nil && len(rows) == 0 {
		_, err = m.tables.Insert(ctx, remote.TableProfiles, []remote.Row{{"id": current.ID, "wedding_date": value}})
	}
	if err != nil {
		return fmt.Errorf("save wedding date: %w", err)
	}

	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if m.identity == nil || m.identity.ID != current.ID {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	updated := copyIdentity(m.identity)
	if date != nil {
		d := *date
		updated.WeddingDate = &d
	} else {
		updated.WeddingDate = nil
	}
	m.identity = updated
	m.profileWrites++
	listeners := m.snapshotListeners()
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(copyIdentity(updated))
	}
	m.log.Info("Wedding date updated", logger.F("user_id", current.ID), logger.F("date", value))
	return nil
}

// ChangePassword sets a new password for the signed-in account.
func (m *Manager) ChangePassword(ctx context.Context, password string) error {
	if m.Identity() == nil {
		return ErrNoIdentity
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	return m.auth.UpdatePassword(ctx, password)
}

func copyIdentity(id *model.Identity) *model.Identity {
	if id == nil {
		return nil
	}
	c := *id
	if id.WeddingDate != nil {
		d := *id.WeddingDate
		c.WeddingDate = &d
	}
	return &c
}

func sameIdentity(a, b *model.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != b.ID || a.Email != b.Email || a.Name != b.Name {
		return false
	}
	if a.WeddingDate == nil || b.WeddingDate == nil {
		return a.WeddingDate == b.WeddingDate
	}
	return a.WeddingDate.Equal(*b.WeddingDate)
}
