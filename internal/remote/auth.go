package remote

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/existflow/wedplan/internal/logger"
)

type userPayload struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

func (u userPayload) user() User {
	name, _ := u.UserMetadata["name"].(string)
	return User{ID: u.ID, Email: u.Email, Name: name}
}

type sessionPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	ExpiresAt    int64       `json:"expires_at"`
	User         userPayload `json:"user"`
}

func (p sessionPayload) session(now time.Time) *Session {
	s := &Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		User:         p.User.user(),
	}
	switch {
	case p.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(p.ExpiresAt, 0)
	case p.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return s
}

// SignUp registers a new account and signs it in when the store returns a
// session right away.
func (c *Client) SignUp(ctx context.Context, email, password string, attrs map[string]any) (*Session, error) {
	var payload sessionPayload
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: map[string]any{
			"email":    email,
			"password": password,
			"data":     attrs,
		},
	}, &payload)
	if err != nil {
		return nil, err
	}

	if payload.AccessToken == "" {
		logger.Info("Registered, confirmation pending", logger.F("email", email))
		return nil, nil
	}

	s := payload.session(c.now())
	c.setSession(s, EventSignedIn)
	logger.Info("Registered", logger.F("user_id", s.User.ID))
	return copySession(s), nil
}

// SignInWithPassword signs in with email and password.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var payload sessionPayload
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
	}, &payload)
	if err != nil {
		return nil, err
	}

	s := payload.session(c.now())
	c.setSession(s, EventSignedIn)
	logger.Info("Signed in", logger.F("user_id", s.User.ID))
	return copySession(s), nil
}

// SignOut revokes the session on the store and clears it locally. Signing
// out without a session is not an error, and the local session is cleared
// even if the store cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	if c.currentSession() == nil {
		return nil
	}

	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		auth:   true,
	}, nil)
	if err != nil && !errors.Is(err, ErrUnauthorized) && !errors.Is(err, ErrNotSignedIn) {
		logger.Warn("Remote sign out failed, clearing local session", logger.F("error", err))
	}

	if c.currentSession() != nil {
		c.setSession(nil, EventSignedOut)
	}
	return nil
}

// GetSession returns the stored session, refreshing it if it has expired.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	s := c.currentSession()
	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.now()) {
		return s, nil
	}
	refreshed, err := c.refresh(ctx, s.AccessToken)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrValidation) {
			return nil, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// GetUser fetches the account behind the current session.
func (c *Client) GetUser(ctx context.Context) (User, error) {
	var payload userPayload
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", auth: true}, &payload)
	if err != nil {
		return User{}, err
	}
	return payload.user(), nil
}

// UpdatePassword changes the password of the signed-in account.
func (c *Client) UpdatePassword(ctx context.Context, password string) error {
	var payload userPayload
	err := c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		body:   map[string]string{"password": password},
		auth:   true,
	}, &payload)
	if err != nil {
		return err
	}

	if s := c.currentSession(); s != nil {
		s.User = payload.user()
		c.setSession(s, EventUserUpdated)
	}
	return nil
}

// OnSessionChange subscribes fn to auth events.
func (c *Client) OnSessionChange(fn func(Event)) func() {
	return c.notifier.Subscribe(fn)
}

// Notifier exposes the event dispatcher, mainly so tests can Flush it.
func (c *Client) Notifier() *Notifier {
	return c.notifier
}
