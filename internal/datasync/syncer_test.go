package datasync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
	"github.com/existflow/wedplan/internal/remote/remotetest"
)

func signedIn(t *testing.T) (*remotetest.Store, *model.Identity) {
	t.Helper()
	store := remotetest.New()
	uid := store.AddUser("ana@example.com", "secret1", "Ana")
	store.SignInAs("ana@example.com")
	store.Flush()
	return store, &model.Identity{ID: uid, Email: "ana@example.com"}
}

func putCategory(store *remotetest.Store, owner, name string, order int) string {
	id := uuid.NewString()
	store.Put(remote.TableCategories, remote.Row{
		"id": id, "user_id": owner, "name": name, "timeline": "1-month",
		"order_index": order, "created_at": "2024-01-01T00:00:00Z",
	})
	return id
}

func putTask(store *remotetest.Store, owner, categoryID, title string, order int) string {
	id := uuid.NewString()
	store.Put(remote.TableTasks, remote.Row{
		"id": id, "user_id": owner, "category_id": categoryID, "title": title,
		"priority": "medium", "completed": false, "order_index": order,
	})
	return id
}

func names(cats []model.Category) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

func TestFetchCategoriesSeedsEmptyCollection(t *testing.T) {
	store, id := signedIn(t)
	s := NewSyncer(store, id)

	require.NoError(t, s.FetchCategories(context.Background()))

	cats := s.Categories()
	require.Len(t, cats, 10)
	for i, c := range cats {
		assert.Equal(t, i, c.OrderIndex)
		assert.Equal(t, id.ID, c.UserID)
		assert.NotEmpty(t, c.ID)
	}
	assert.Equal(t, "Venue & Catering", cats[0].Name)
	assert.Equal(t, "Dokumentasi", cats[1].Name)
	assert.Equal(t, "Hari H", cats[9].Name)
	assert.Equal(t, 1, store.CountCalls("seed", remote.TableCategories))
	assert.Zero(t, store.CountCalls("insert", remote.TableCategories))
}

func TestFetchCategoriesDoesNotReseed(t *testing.T) {
	store, id := signedIn(t)
	putCategory(store, id.ID, "Custom", 5)
	putCategory(store, id.ID, "First", 1)
	s := NewSyncer(store, id)

	require.NoError(t, s.FetchCategories(context.Background()))
	assert.Equal(t, []string{"First", "Custom"}, names(s.Categories()))
	assert.Zero(t, store.CountCalls("seed", remote.TableCategories))
}

func TestConcurrentFirstFetchesSeedOnce(t *testing.T) {
	store, id := signedIn(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, NewSyncer(store, id).FetchCategories(context.Background()))
		}()
	}
	wg.Wait()

	assert.Len(t, store.Rows(remote.TableCategories), 10)
}

func TestFetchFailureEmptiesCollection(t *testing.T) {
	store, id := signedIn(t)
	cat := putCategory(store, id.ID, "Venue", 0)
	putTask(store, id.ID, cat, "Book venue", 0)
	s := NewSyncer(store, id)

	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Tasks(), 1)

	boom := errors.New("connection reset")
	store.Fail("select:"+remote.TableTasks, boom)
	err := s.FetchTasks(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, s.Tasks())
	assert.ErrorIs(t, s.Err(KindTasks), boom)
	assert.Len(t, s.Categories(), 1)
	assert.NoError(t, s.Err(KindCategories))

	store.Fail("select:"+remote.TableTasks, nil)
	require.NoError(t, s.FetchTasks(context.Background()))
	assert.Len(t, s.Tasks(), 1)
	assert.NoError(t, s.Err(KindTasks))
}

func TestSeedFailureEmptiesCategories(t *testing.T) {
	store, id := signedIn(t)
	store.Fail("seed:"+remote.TableCategories, errors.New("rpc down"))
	s := NewSyncer(store, id)

	assert.Error(t, s.FetchCategories(context.Background()))
	assert.Empty(t, s.Categories())
	assert.Error(t, s.Snapshot().Err(KindCategories))
}

func TestInvalidRowsDropped(t *testing.T) {
	store, id := signedIn(t)
	cat := putCategory(store, id.ID, "Venue", 0)
	putTask(store, id.ID, cat, "Good", 0)
	store.Put(remote.TableTasks, remote.Row{
		"id": uuid.NewString(), "user_id": id.ID, "category_id": cat,
		"title": "Bad", "priority": "someday", "order_index": 1,
	})
	s := NewSyncer(store, id)

	require.NoError(t, s.FetchTasks(context.Background()))
	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Good", tasks[0].Title)
}

func TestNotesNewestFirst(t *testing.T) {
	store, id := signedIn(t)
	for i, ts := range []string{"2024-01-01T00:00:00Z", "2024-03-01T00:00:00Z", "2024-02-01T00:00:00Z"} {
		store.Put(remote.TableNotes, remote.Row{
			"id": uuid.NewString(), "user_id": id.ID, "content": ts,
			"is_general": true, "created_at": ts, "title": []string{"a", "b", "c"}[i],
		})
	}
	s := NewSyncer(store, id)

	require.NoError(t, s.FetchNotes(context.Background()))
	notes := s.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, "b", notes[0].Title)
	assert.Equal(t, "c", notes[1].Title)
	assert.Equal(t, "a", notes[2].Title)
}

func TestOnlyOwnRowsRead(t *testing.T) {
	store, id := signedIn(t)
	other := store.AddUser("ben@example.com", "secret1", "Ben")
	putCategory(store, other, "Not mine", 0)
	putCategory(store, id.ID, "Mine", 0)
	s := NewSyncer(store, id)

	require.NoError(t, s.FetchCategories(context.Background()))
	assert.Equal(t, []string{"Mine"}, names(s.Categories()))
	for _, c := range store.Calls() {
		if c.Op == "select" {
			assert.Contains(t, c.Query.Filters, remote.Eq("user_id", id.ID))
		}
	}
}

func TestLoadingSpansAllFetches(t *testing.T) {
	store, id := signedIn(t)
	putCategory(store, id.ID, "Venue", 0)

	release := make(chan struct{})
	store.BeforeSelect = func(_ context.Context, q remote.Query) {
		if q.Table == remote.TableNotes {
			<-release
		}
	}
	s := NewSyncer(store, id)

	done := make(chan error)
	go func() { done <- s.Load(context.Background()) }()

	require.Eventually(t, func() bool { return len(s.Categories()) == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, s.Loading())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Loading())
}

func TestCloseDropsInFlightResults(t *testing.T) {
	store, id := signedIn(t)
	putCategory(store, id.ID, "Venue", 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	store.BeforeSelect = func(_ context.Context, q remote.Query) {
		close(entered)
		<-release
	}
	s := NewSyncer(store, id)

	done := make(chan error)
	go func() { done <- s.FetchCategories(context.Background()) }()
	<-entered
	s.Close()
	close(release)
	<-done

	assert.Empty(t, s.Categories())
	assert.ErrorIs(t, s.FetchTasks(context.Background()), ErrClosed)
	assert.ErrorIs(t, s.Load(context.Background()), ErrClosed)
}

func TestOverlappingFetchKeepsLatest(t *testing.T) {
	store, id := signedIn(t)
	cat := putCategory(store, id.ID, "Venue", 0)
	putTask(store, id.ID, cat, "Old", 0)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.BeforeSelect = func(_ context.Context, q remote.Query) {
		once.Do(func() {
			close(entered)
			<-release
		})
	}
	s := NewSyncer(store, id)

	first := make(chan error)
	go func() { first <- s.FetchTasks(context.Background()) }()
	<-entered

	putTask(store, id.ID, cat, "New", 1)
	require.NoError(t, s.FetchTasks(context.Background()))
	close(release)
	<-first

	assert.Len(t, s.Tasks(), 2)
}

func TestOnChangeCalled(t *testing.T) {
	store, id := signedIn(t)
	var mu sync.Mutex
	calls := 0
	s := NewSyncer(store, id, WithOnChange(func() {
		mu.Lock()
		calls++
		mu.Unlock()
	}))

	require.NoError(t, s.Load(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 4)
}
