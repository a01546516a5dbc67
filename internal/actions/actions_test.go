package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/wedplan/internal/datasync"
	"github.com/existflow/wedplan/internal/model"
	"github.com/existflow/wedplan/internal/remote"
	"github.com/existflow/wedplan/internal/remote/remotetest"
)

type staticIdentity struct{ id *model.Identity }

func (s staticIdentity) Identity() *model.Identity { return s.id }

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *remotetest.Store
	ctrl  *datasync.Controller
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := remotetest.New()
	uid := store.AddUser("ana@example.com", "secret1", "Ana")
	store.SignInAs("ana@example.com")
	store.Flush()

	id := &model.Identity{ID: uid, Email: "ana@example.com", Name: "Ana"}
	ctrl := datasync.NewController(store)
	ctrl.SetIdentity(id)
	ctrl.Wait()
	t.Cleanup(ctrl.Close)

	svc := New(store, ctrl, staticIdentity{id}, WithClock(func() time.Time { return fixedNow }))
	return &fixture{store: store, ctrl: ctrl, svc: svc}
}

func (f *fixture) category(t *testing.T) model.Category {
	t.Helper()
	cats := f.ctrl.Snapshot().Categories
	require.NotEmpty(t, cats)
	return cats[0]
}

func (f *fixture) addTask(t *testing.T, title string) model.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), TaskInput{Title: title, CategoryID: f.category(t).ID})
	require.NoError(t, err)
	return task
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)

	task, err := f.svc.CreateTask(context.Background(), TaskInput{Title: "  Book venue  ", CategoryID: cat.ID})
	require.NoError(t, err)

	assert.Equal(t, "Book venue", task.Title)
	assert.Equal(t, model.PriorityMedium, task.Priority)
	assert.False(t, task.Completed)
	assert.Equal(t, model.NewTaskOrderIndex, task.OrderIndex)

	tasks := f.ctrl.Snapshot().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
}

func TestCreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)
	ctx := context.Background()

	_, err := f.svc.CreateTask(ctx, TaskInput{Title: " ", CategoryID: cat.ID})
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = f.svc.CreateTask(ctx, TaskInput{Title: "x", CategoryID: cat.ID, Priority: "someday"})
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = f.svc.CreateTask(ctx, TaskInput{Title: "x", CategoryID: "missing"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	assert.Zero(t, f.store.CountCalls("insert", remote.TableTasks))
}

func TestCreateTaskSignedOut(t *testing.T) {
	f := newFixture(t)
	svc := New(f.store, f.ctrl, staticIdentity{})

	_, err := svc.CreateTask(context.Background(), TaskInput{Title: "x", CategoryID: f.category(t).ID})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestUpdateTaskStampsUpdatedAt(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Book venue")
	due := model.MustDate("2025-05-01")

	err := f.svc.UpdateTask(context.Background(), task.ID, TaskInput{
		Title:       "Book garden venue",
		CategoryID:  task.CategoryID,
		Priority:    model.PriorityUrgent,
		DueDate:     &due,
		IsImportant: true,
	})
	require.NoError(t, err)

	got := f.ctrl.Snapshot().Tasks[0]
	assert.Equal(t, "Book garden venue", got.Title)
	assert.Equal(t, model.PriorityUrgent, got.Priority)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2025-05-01", got.DueDate.String())
	assert.True(t, got.IsImportant)
	assert.Equal(t, model.NewTaskOrderIndex, got.OrderIndex)

	assert.ErrorIs(t, f.svc.UpdateTask(context.Background(), "missing", TaskInput{Title: "x"}), ErrTaskNotFound)
}

func TestToggleTask(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Send invitations")
	ctx := context.Background()

	done, err := f.svc.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done)
	assert.True(t, f.ctrl.Snapshot().Tasks[0].Completed)

	done, err = f.svc.ToggleTask(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, f.ctrl.Snapshot().Tasks[0].Completed)
}

func TestToggleTaskWriteFailureKeepsCache(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Send invitations")
	f.store.Fail("update:"+remote.TableTasks, remote.ErrUnavailable)

	done, err := f.svc.ToggleTask(context.Background(), task.ID)
	assert.ErrorIs(t, err, remote.ErrUnavailable)
	assert.False(t, done)
	assert.False(t, f.ctrl.Snapshot().Tasks[0].Completed)
}

func TestDeleteTask(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Send invitations")

	require.NoError(t, f.svc.DeleteTask(context.Background(), task.ID))
	assert.Empty(t, f.ctrl.Snapshot().Tasks)
}

func TestDeleteCategoryWithTasksIsRefused(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Book venue")
	before := len(f.ctrl.Snapshot().Categories)

	err := f.svc.DeleteCategory(context.Background(), task.CategoryID)
	assert.ErrorIs(t, err, ErrCategoryInUse)
	assert.Zero(t, f.store.CountCalls("delete", remote.TableCategories))
	assert.Len(t, f.ctrl.Snapshot().Categories, before)
}

func TestDeleteCategoryChecksStoreNotCache(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)
	// A task written elsewhere that this cache has not seen yet.
	f.store.Put(remote.TableTasks, remote.Row{
		"id": "4b9d6a3c-0c59-4d0e-9f55-2f0b1f6b8a01", "user_id": f.svc.ident.Identity().ID,
		"category_id": cat.ID, "title": "Elsewhere", "priority": "low",
	})

	assert.ErrorIs(t, f.svc.DeleteCategory(context.Background(), cat.ID), ErrCategoryInUse)
	assert.Zero(t, f.store.CountCalls("delete", remote.TableCategories))
}

func TestDeleteEmptyCategory(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)
	before := len(f.ctrl.Snapshot().Categories)

	require.NoError(t, f.svc.DeleteCategory(context.Background(), cat.ID))
	assert.Equal(t, 1, f.store.CountCalls("delete", remote.TableCategories))
	assert.Len(t, f.ctrl.Snapshot().Categories, before-1)
}

func TestDeleteCategoryCheckFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("select:"+remote.TableTasks, remote.ErrUnavailable)

	err := f.svc.DeleteCategory(context.Background(), f.category(t).ID)
	assert.ErrorIs(t, err, remote.ErrUnavailable)
	assert.Zero(t, f.store.CountCalls("delete", remote.TableCategories))
}

func TestCreateCategoryDefaults(t *testing.T) {
	f := newFixture(t)
	next := model.NextOrderIndex(f.ctrl.Snapshot().Categories)

	cat, err := f.svc.CreateCategory(context.Background(), CategoryInput{Name: "Souvenir"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategoryColor, cat.Color)
	assert.Equal(t, DefaultCategoryIcon, cat.Icon)
	assert.Equal(t, model.Timeline3Months, cat.Timeline)
	assert.Equal(t, next, cat.OrderIndex)

	cats := f.ctrl.Snapshot().Categories
	assert.Equal(t, "Souvenir", cats[len(cats)-1].Name)

	_, err = f.svc.CreateCategory(context.Background(), CategoryInput{Name: "x", Timeline: "someday"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
	_, err = f.svc.CreateCategory(context.Background(), CategoryInput{})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestUpdateCategoryKeepsPosition(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)

	require.NoError(t, f.svc.UpdateCategory(context.Background(), cat.ID, CategoryInput{Name: "Venue", Icon: "🏛️"}))
	got := f.ctrl.Snapshot().Categories[0]
	assert.Equal(t, cat.ID, got.ID)
	assert.Equal(t, "Venue", got.Name)
	assert.Equal(t, cat.OrderIndex, got.OrderIndex)
}

func TestNotes(t *testing.T) {
	f := newFixture(t)
	task := f.addTask(t, "Book venue")
	ctx := context.Background()

	general, err := f.svc.CreateNote(ctx, NoteInput{Content: "Budget 50jt", TaskID: task.ID, IsGeneral: true})
	require.NoError(t, err)
	assert.True(t, general.IsGeneral)
	assert.Empty(t, general.TaskID)

	attached, err := f.svc.CreateNote(ctx, NoteInput{Title: "Call", Content: "Ask about parking", TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, task.ID, attached.TaskID)
	assert.Len(t, f.ctrl.Snapshot().Notes, 2)

	_, err = f.svc.CreateNote(ctx, NoteInput{Content: "  "})
	assert.ErrorIs(t, err, ErrInvalidNote)
	_, err = f.svc.CreateNote(ctx, NoteInput{Content: "orphan"})
	assert.ErrorIs(t, err, ErrInvalidNote)
	_, err = f.svc.CreateNote(ctx, NoteInput{Content: "orphan", TaskID: "missing"})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, f.svc.UpdateNote(ctx, attached.ID, NoteInput{Content: "Parking for 40 cars", IsGeneral: true}))
	for _, n := range f.ctrl.Snapshot().Notes {
		if n.ID == attached.ID {
			assert.True(t, n.IsGeneral)
			assert.Empty(t, n.TaskID)
		}
	}

	require.NoError(t, f.svc.DeleteNote(ctx, general.ID))
	assert.Len(t, f.ctrl.Snapshot().Notes, 1)
	assert.ErrorIs(t, f.svc.UpdateNote(ctx, general.ID, NoteInput{Content: "x", IsGeneral: true}), ErrNoteNotFound)
}

func TestAddSuggestion(t *testing.T) {
	f := newFixture(t)
	cat := f.category(t)
	suggestions := model.SuggestionsFor(cat.Name)
	require.NotEmpty(t, suggestions)

	task, err := f.svc.AddSuggestion(context.Background(), cat.ID, suggestions[0])
	require.NoError(t, err)
	assert.Equal(t, suggestions[0].Title, task.Title)
	assert.Equal(t, suggestions[0].Priority, task.Priority)
}

func TestRefetchFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.store.Fail("select:"+remote.TableTasks, errors.New("boom"))

	_, err := f.svc.CreateTask(context.Background(), TaskInput{Title: "x", CategoryID: f.category(t).ID})
	require.NoError(t, err)
	assert.Error(t, f.ctrl.Snapshot().Err(datasync.KindTasks))
	assert.Len(t, f.store.Rows(remote.TableTasks), 1)
}
