package datasync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
	"github.com/existflow/wedplan/internal/remote/remotetest"
)

type fakeSource struct {
	mu   sync.Mutex
	id   *model.Identity
	subs []func(*model.Identity)
}

func (f *fakeSource) Identity() *model.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *fakeSource) Subscribe(fn func(*model.Identity)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {}
}

func (f *fakeSource) set(id *model.Identity) {
	f.mu.Lock()
	f.id = id
	subs := append([]func(*model.Identity){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(id)
	}
}

func TestControllerWithoutIdentity(t *testing.T) {
	store := remotetest.New()
	c := NewController(store)
	c.Bind(context.Background(), &fakeSource{})

	snap := c.Snapshot()
	assert.Empty(t, snap.Categories)
	assert.Empty(t, snap.Tasks)
	assert.Empty(t, snap.Notes)
	assert.False(t, snap.Loading)
	assert.NoError(t, c.FetchCategories(context.Background()))
	assert.NoError(t, c.Refetch(context.Background()))
	assert.Empty(t, store.Calls())
}

func TestControllerLoadsOnIdentity(t *testing.T) {
	store, id := signedIn(t)
	release := make(chan struct{})
	store.BeforeSelect = func(context.Context, remote.Query) { <-release }

	src := &fakeSource{}
	c := NewController(store)
	c.Bind(context.Background(), src)

	src.set(id)
	assert.True(t, c.Loading())

	close(release)
	c.Wait()
	assert.False(t, c.Loading())
	assert.Len(t, c.Snapshot().Categories, 10)
}

func TestControllerResetsOnLogout(t *testing.T) {
	store, id := signedIn(t)
	src := &fakeSource{}
	c := NewController(store)
	c.Bind(context.Background(), src)

	src.set(id)
	c.Wait()
	require.Len(t, c.Snapshot().Categories, 10)
	calls := len(store.Calls())

	src.set(nil)
	snap := c.Snapshot()
	assert.Empty(t, snap.Categories)
	assert.False(t, snap.Loading)
	assert.Nil(t, c.Current())
	assert.Len(t, store.Calls(), calls)
}

func TestControllerSameIdentityKeepsSyncer(t *testing.T) {
	store, id := signedIn(t)
	src := &fakeSource{}
	c := NewController(store)
	c.Bind(context.Background(), src)

	src.set(id)
	c.Wait()
	first := c.Current()

	d := model.MustDate("2025-06-14")
	src.set(&model.Identity{ID: id.ID, Email: id.Email, WeddingDate: &d})
	assert.Same(t, first, c.Current())
}

func TestControllerSwitchDropsOldResults(t *testing.T) {
	store, id := signedIn(t)
	putCategory(store, id.ID, "Ana's", 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.BeforeSelect = func(context.Context, remote.Query) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}

	src := &fakeSource{}
	c := NewController(store)
	c.Bind(context.Background(), src)
	src.set(id)
	<-entered
	old := c.Current()

	src.set(nil)
	close(release)
	c.Wait()

	assert.Nil(t, c.Current())
	assert.Empty(t, old.Categories())
	assert.Empty(t, c.Snapshot().Categories)
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
}

func (r *countingRefresher) Refetch(context.Context, ...Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestAutoRefreshDebounces(t *testing.T) {
	r := &countingRefresher{}
	a := NewAutoRefresh(r, 0, 20*time.Millisecond)
	defer a.Stop()

	done := make(chan struct{}, 1)
	a.SetOnRefresh(func(error) { done <- struct{}{} })

	for i := 0; i < 5; i++ {
		a.TriggerRefresh()
	}
	assert.True(t, a.IsPending())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced refresh did not run")
	}
	assert.Equal(t, 1, r.count())
	assert.False(t, a.IsPending())
}

func TestAutoRefreshNowIfPending(t *testing.T) {
	r := &countingRefresher{}
	a := NewAutoRefresh(r, 0, time.Hour)
	defer a.Stop()

	require.NoError(t, a.RefreshNowIfPending(context.Background()))
	assert.Equal(t, 0, r.count())

	a.TriggerRefresh()
	require.NoError(t, a.RefreshNowIfPending(context.Background()))
	assert.Equal(t, 1, r.count())
}

func TestAutoRefreshPolls(t *testing.T) {
	r := &countingRefresher{}
	a := NewAutoRefresh(r, 10*time.Millisecond, time.Hour)

	require.Eventually(t, func() bool { return r.count() >= 2 }, time.Second, 5*time.Millisecond)
	a.Stop()
	a.Stop()
}
