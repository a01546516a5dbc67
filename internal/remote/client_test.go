package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "6f1c1f38-4d0a-4a53-9d0e-1b7b6c0b7a11"

func sessionJSON(access, refresh string, expiresAt time.Time) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_at":    expiresAt.Unix(),
		"user": map[string]any{
			"id":            testUserID,
			"email":         "ana@example.com",
			"user_metadata": map[string]any{"name": "Ana"},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) add(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestSignInPersistsSessionAndEmits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": CodeInvalidCredentials, "message": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, sessionJSON("a1", "r1", time.Now().Add(time.Hour)))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	c, err := NewClient(srv.URL, WithSessionFile(path))
	require.NoError(t, err)

	rec := &recorder{}
	c.OnSessionChange(rec.add)

	_, err = c.SignInWithPassword(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "Invalid login credentials", Message(err))

	s, err := c.SignInWithPassword(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", s.User.Name)

	c.Notifier().Flush()
	assert.Equal(t, []EventKind{EventSignedIn}, rec.kinds())

	reloaded, err := NewClient(srv.URL, WithSessionFile(path))
	require.NoError(t, err)
	got, err := reloaded.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a1", got.AccessToken)
}

func TestSelectEncodesQueryAndDecodesNumbers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		assert.Equal(t, "eq."+testUserID, r.URL.Query().Get("user_id"))
		assert.Equal(t, "order_index.asc", r.URL.Query().Get("order"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "x", "order_index": 3}})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.session = &Session{AccessToken: "tok", User: User{ID: testUserID}}

	rows, err := c.Select(context.Background(), Query{
		Table:   TableTasks,
		Filters: []Filter{Eq("user_id", testUserID)},
		Order:   "order_index",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("3"), rows[0]["order_index"])
}

func TestSelectWithoutSession(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	require.NoError(t, err)

	_, err = c.Select(context.Background(), Query{Table: TableNotes})
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestUnauthorizedTriggersRefreshAndRetry(t *testing.T) {
	var refreshes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
			refreshes.Add(1)
			writeJSON(w, http.StatusOK, sessionJSON("fresh", "r2", time.Now().Add(time.Hour)))
		case "/rest/v1/notes":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"code": CodeInvalidToken, "message": "token expired"})
				return
			}
			writeJSON(w, http.StatusOK, []map[string]any{})
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.session = &Session{AccessToken: "old", RefreshToken: "r1", User: User{ID: testUserID}}
	rec := &recorder{}
	c.OnSessionChange(rec.add)

	rows, err := c.Select(context.Background(), Query{Table: TableNotes})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.EqualValues(t, 1, refreshes.Load())

	c.Notifier().Flush()
	assert.Equal(t, []EventKind{EventTokenRefreshed}, rec.kinds())
}

func TestRejectedRefreshSignsOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"code": CodeInvalidToken, "message": "invalid refresh token"})
	}))
	defer srv.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, err := NewClient(srv.URL, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	c.session = &Session{AccessToken: "old", RefreshToken: "bad", ExpiresAt: now.Add(-time.Minute)}
	rec := &recorder{}
	c.OnSessionChange(rec.add)

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)

	c.Notifier().Flush()
	assert.Equal(t, []EventKind{EventSignedOut}, rec.kinds())
}

func TestSignOutIsIdempotent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.session = &Session{AccessToken: "a"}

	require.NoError(t, c.SignOut(context.Background()))
	require.NoError(t, c.SignOut(context.Background()))
	assert.EqualValues(t, 1, calls.Load())

	s, err := c.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestAPIErrorMapping(t *testing.T) {
	cases := []struct {
		err  *APIError
		want error
	}{
		{&APIError{Status: 409}, ErrAlreadyRegistered},
		{&APIError{Status: 422, Code: CodeUserExists}, ErrAlreadyRegistered},
		{&APIError{Status: 401}, ErrUnauthorized},
		{&APIError{Status: 400}, ErrValidation},
		{&APIError{Status: 503}, ErrUnavailable},
		{&APIError{Status: 404}, ErrNotFound},
	}
	for _, tc := range cases {
		assert.True(t, errors.Is(tc.err, tc.want), "%d %s", tc.err.Status, tc.err.Code)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.session = &Session{AccessToken: "a"}

	err = c.Delete(context.Background(), TableTasks, "t1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)
}
