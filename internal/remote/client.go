package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/existflow/wedplan/internal/logger"
)

// refreshMargin is how long before expiry a token is refreshed eagerly.
const refreshMargin = 30 * time.Second

// Client talks to the store over HTTP JSON.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	sessionPath string
	now         func() time.Time
	notifier    *Notifier

	mu        sync.Mutex
	session   *Session
	refreshMu sync.Mutex
}

var _ Store = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithSessionFile persists the session to path between runs.
func WithSessionFile(path string) Option {
	return func(c *Client) { c.sessionPath = path }
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a client for the store at serverURL and loads any
// persisted session.
func NewClient(serverURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q", serverURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
		notifier:   NewNotifier(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.loadSession()
	return c, nil
}

// DefaultSessionPath returns ~/.wedplan/session.json.
func DefaultSessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".wedplan", "session.json"), nil
}

// ServerURL returns the base URL the client talks to.
func (c *Client) ServerURL() string {
	return c.baseURL
}

func (c *Client) loadSession() {
	if c.sessionPath == "" {
		return
	}
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil || s.AccessToken == "" {
		logger.Warn("Ignoring unreadable session file", logger.F("path", c.sessionPath))
		return
	}
	c.session = &s
}

func (c *Client) saveSession(s *Session) error {
	if c.sessionPath == "" {
		return nil
	}
	if s == nil {
		if err := os.Remove(c.sessionPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, data, 0600)
}

func (c *Client) currentSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySession(c.session)
}

// setSession stores s, persists it and emits kind.
func (c *Client) setSession(s *Session, kind EventKind) {
	c.mu.Lock()
	c.session = copySession(s)
	c.mu.Unlock()

	if err := c.saveSession(s); err != nil {
		logger.Warn("Failed to persist session", logger.F("error", err))
	}
	c.notifier.Emit(kind, s)
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
	header http.Header
}

// do sends req and decodes a JSON response into out. Authenticated requests
// are retried once after a token refresh when the store answers 401.
func (c *Client) do(ctx context.Context, req request, out any) error {
	if !req.auth {
		return c.send(ctx, req, "", out)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	err = c.send(ctx, req, token, out)
	if !errors.Is(err, ErrUnauthorized) {
		return err
	}

	logger.Debug("Access token rejected, refreshing", logger.F("path", req.path))
	s, refreshErr := c.refresh(ctx, token)
	if refreshErr != nil {
		return err
	}
	return c.send(ctx, req, s.AccessToken, out)
}

func (c *Client) send(ctx context.Context, req request, token string, out any) error {
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return err
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("Request failed", logger.F("method", req.method), logger.F("path", req.path), logger.F("error", err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	logger.Debug("Request",
		logger.F("method", req.method),
		logger.F("path", req.path),
		logger.F("status", resp.StatusCode),
		logger.F("duration", c.now().Sub(start).String()))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 {
		if json.Unmarshal(data, apiErr) != nil || (apiErr.Message == "" && apiErr.Code == "") {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	return apiErr
}

// accessToken returns a usable token, refreshing it first when it is about
// to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	s := c.currentSession()
	if s == nil {
		return "", ErrNotSignedIn
	}
	if s.ExpiresAt.IsZero() || c.now().Add(refreshMargin).Before(s.ExpiresAt) {
		return s.AccessToken, nil
	}
	refreshed, err := c.refresh(ctx, s.AccessToken)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// refresh exchanges the refresh token for a new session. stale is the access
// token the caller saw; if another goroutine already replaced it, that
// session is reused.
func (c *Client) refresh(ctx context.Context, stale string) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	s := c.currentSession()
	if s == nil {
		return nil, ErrNotSignedIn
	}
	if s.AccessToken != stale {
		return s, nil
	}
	if s.RefreshToken == "" {
		return nil, ErrUnauthorized
	}

	var payload sessionPayload
	err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": s.RefreshToken},
	}, "", &payload)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrValidation) {
			logger.Warn("Refresh token rejected, signing out")
			c.setSession(nil, EventSignedOut)
		}
		return nil, err
	}

	refreshed := payload.session(c.now())
	c.setSession(refreshed, EventTokenRefreshed)
	logger.Debug("Session refreshed", logger.F("user_id", refreshed.User.ID))
	return refreshed, nil
}
