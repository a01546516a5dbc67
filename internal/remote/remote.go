// Package remote is the client side of the hosted store: email/password
// auth with session change notifications, and owner-scoped table access.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/existflow/wedplan/internal/model"
)

// Table names.
const (
	TableProfiles   = "profiles"
	TableCategories = "categories"
	TableTasks      = "tasks"
	TableNotes      = "notes"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrAlreadyRegistered  = errors.New("user already registered")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrUnavailable        = errors.New("service unavailable")
)

// Error codes carried in API error bodies.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserExists         = "user_already_exists"
	CodeValidation         = "validation_failed"
	CodeInvalidToken       = "invalid_token"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal_error"
)

// Row is an untyped table record.
type Row = model.Row

// User is the auth account attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session is an issued login.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Filter restricts a select to rows where Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// Eq builds an equality filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// Query describes a table read.
type Query struct {
	Table      string
	Filters    []Filter
	Order      string
	Descending bool
}

// Auth is the authentication half of the store.
type Auth interface {
	// SignUp creates an account. The returned session is nil when the store
	// requires confirmation before the first sign in.
	SignUp(ctx context.Context, email, password string, attrs map[string]any) (*Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
	// GetSession returns the current session or nil.
	GetSession(ctx context.Context) (*Session, error)
	UpdatePassword(ctx context.Context, password string) error
	// OnSessionChange registers fn for auth events and returns a function
	// that removes it. Events are delivered in order on one goroutine.
	OnSessionChange(fn func(Event)) (unsubscribe func())
}

// Tables is the data half of the store. Every call is restricted by the
// store to rows owned by the signed-in user.
type Tables interface {
	Select(ctx context.Context, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, rows []Row) ([]Row, error)
	Update(ctx context.Context, table string, patch Row, id string) ([]Row, error)
	Delete(ctx context.Context, table, id string) error
	// SeedCategories creates the default categories for the signed-in user
	// unless they already exist, and returns the user's categories ordered
	// by order_index.
	SeedCategories(ctx context.Context) ([]Row, error)
}

// Store combines both halves.
type Store interface {
	Auth
	Tables
}

// APIError is a non-2xx response from the store.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("remote: %s", e.Message)
}

// Unwrap maps the response to one of the package sentinels.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case CodeInvalidCredentials:
		return ErrInvalidCredentials
	case CodeUserExists:
		return ErrAlreadyRegistered
	case CodeValidation:
		return ErrValidation
	case CodeNotFound:
		return ErrNotFound
	}
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusConflict:
		return ErrAlreadyRegistered
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.Status >= 500:
		return ErrUnavailable
	}
	return nil
}

// Message returns the human readable part of err suitable for display.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrAlreadyRegistered):
		return "An account with this email already exists"
	case errors.Is(err, ErrNotSignedIn), errors.Is(err, ErrUnauthorized):
		return "Please sign in again"
	case errors.Is(err, ErrUnavailable):
		return "The server could not be reached"
	}
	return err.Error()
}
