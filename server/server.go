// Package server is a self-hostable remote store for wedplan: email and
// password auth with JWT access tokens, owner-scoped row access to the
// planning tables, and the idempotent category seeding procedure.
package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/remote"
)

// Config holds the server settings.
type Config struct {
	DatabaseURL     string
	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// DefaultConfig returns the built-in token lifetimes.
func DefaultConfig() Config {
	return Config{
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	}
}

// Server is the remote store.
type Server struct {
	db   *sql.DB
	cfg  Config
	echo *echo.Echo
	now  func() time.Time
}

// New connects to Postgres, runs migrations and sets up the routes.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("jwt secret is required")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return NewWithDB(db, cfg), nil
}

// NewWithDB wraps an already migrated database.
func NewWithDB(db *sql.DB, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = def.AccessTokenTTL
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = def.RefreshTokenTTL
	}

	s := &Server{db: db, cfg: cfg, now: time.Now}
	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			logger.Debug("HTTP Request",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("remote", req.RemoteAddr))

			err := next(c)

			res := c.Response()
			logger.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("duration", time.Since(start).String()))

			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/health", s.handleHealth)

	// Auth endpoints
	auth := e.Group("/auth/v1")
	auth.POST("/signup", s.handleSignUp)
	auth.POST("/token", s.handleToken)

	account := auth.Group("", s.authMiddleware)
	account.POST("/logout", s.handleLogout)
	account.GET("/user", s.handleGetUser)
	account.PUT("/user", s.handleUpdateUser)

	// Table endpoints
	rest := e.Group("/rest/v1", s.authMiddleware)
	rest.POST("/rpc/seed_categories", s.handleSeedCategories)
	rest.GET("/:table", s.handleSelect)
	rest.POST("/:table", s.handleInsert)
	rest.PATCH("/:table", s.handleUpdate)
	rest.DELETE("/:table", s.handleDelete)

	s.echo = e
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		return apiError(c, http.StatusServiceUnavailable, remote.CodeInternal, "database unavailable")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func apiError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, errorResponse{Code: code, Message: message})
}

func internalError(c echo.Context, what string, err error) error {
	logger.Error("Request failed",
		logger.F("op", what),
		logger.F("uri", c.Request().RequestURI),
		logger.F("error", err))
	return apiError(c, http.StatusInternalServerError, remote.CodeInternal, "internal error")
}

func userID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}
