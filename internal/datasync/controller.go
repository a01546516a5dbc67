package datasync

import (
	"context"
	"sync"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
)

// IdentitySource publishes identity changes. *session.Manager satisfies it.
type IdentitySource interface {
	Identity() *model.Identity
	Subscribe(fn func(*model.Identity)) (unsubscribe func())
}

// Controller owns at most one Syncer, replacing it whenever the identity
// changes. Without an identity every collection is empty, Loading is false
// and fetches are no-ops.
type Controller struct {
	tables   remote.Tables
	opts     []Option
	onChange func()

	mu      sync.Mutex
	ctx     context.Context
	current *Syncer
	loads   sync.WaitGroup
}

// NewController creates a Controller. opts apply to every Syncer it creates.
func NewController(tables remote.Tables, opts ...Option) *Controller {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller{tables: tables, opts: opts, onChange: o.onChange, ctx: context.Background()}
}

// Bind follows src: the current identity is applied now and later changes
// as they happen. ctx bounds the loads started for each identity.
func (c *Controller) Bind(ctx context.Context, src IdentitySource) (unbind func()) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	unsub := src.Subscribe(func(id *model.Identity) { c.SetIdentity(id) })
	c.SetIdentity(src.Identity())
	return unsub
}

// SetIdentity switches to id. A different user gets a fresh Syncer whose
// Load starts immediately, with Loading already true on return. The same
// user keeps the current Syncer. nil tears the Syncer down.
func (c *Controller) SetIdentity(id *model.Identity) {
	c.mu.Lock()
	if id != nil && c.current != nil && c.current.Owner() == id.ID {
		c.mu.Unlock()
		return
	}
	old := c.current
	c.current = nil
	if id != nil {
		c.current = NewSyncer(c.tables, id, c.opts...)
	}
	next := c.current
	ctx := c.ctx
	c.mu.Unlock()

	if old != nil {
		old.Close()
		logger.Debug("Sync torn down", logger.F("user_id", old.Owner()))
	}
	if next == nil {
		if c.onChange != nil {
			c.onChange()
		}
		return
	}

	next.beginLoad()
	c.loads.Add(1)
	go func() {
		defer c.loads.Done()
		_ = next.runLoad(ctx)
	}()
}

// Current returns the active Syncer or nil.
func (c *Controller) Current() *Syncer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Wait blocks until every load started by SetIdentity has settled.
func (c *Controller) Wait() {
	c.loads.Wait()
}

// Snapshot returns the active Syncer's snapshot, or an empty one.
func (c *Controller) Snapshot() Snapshot {
	if s := c.Current(); s != nil {
		return s.Snapshot()
	}
	return Snapshot{Errors: map[Kind]error{}}
}

// Loading reports whether the active Syncer is loading.
func (c *Controller) Loading() bool {
	if s := c.Current(); s != nil {
		return s.Loading()
	}
	return false
}

func (c *Controller) FetchCategories(ctx context.Context) error {
	if s := c.Current(); s != nil {
		return s.FetchCategories(ctx)
	}
	return nil
}

func (c *Controller) FetchTasks(ctx context.Context) error {
	if s := c.Current(); s != nil {
		return s.FetchTasks(ctx)
	}
	return nil
}

func (c *Controller) FetchNotes(ctx context.Context) error {
	if s := c.Current(); s != nil {
		return s.FetchNotes(ctx)
	}
	return nil
}

// Refetch reloads the named collections of the active Syncer.
func (c *Controller) Refetch(ctx context.Context, kinds ...Kind) error {
	if s := c.Current(); s != nil {
		return s.Refetch(ctx, kinds...)
	}
	return nil
}

// Close tears down the active Syncer.
func (c *Controller) Close() {
	c.SetIdentity(nil)
}
