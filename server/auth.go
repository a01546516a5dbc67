package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/existflow/wedplan/internal/logger"
	"github.com/existflow/wedplan/internal/remote"
)

const minPasswordLength = 6

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data"`
}

type tokenRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	RefreshToken string `json:"refresh_token"`
}

type updateUserRequest struct {
	Password string `json:"password"`
}

type userResponse struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata"`
}

type sessionResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         userResponse `json:"user"`
}

type account struct {
	id    string
	email string
	name  string
}

func (a account) response() userResponse {
	return userResponse{ID: a.id, Email: a.email, UserMetadata: map[string]string{"name": a.name}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

const (
	pqUniqueViolation     pq.ErrorCode = "23505"
	pqForeignKeyViolation pq.ErrorCode = "23503"
)

// handleSignUp creates an account with its empty profile and signs it in.
func (s *Server) handleSignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "invalid request")
	}

	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "a valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "password must be at least 6 characters")
	}
	name, _ := req.Data["name"].(string)
	name = strings.TrimSpace(name)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, "hash password", err)
	}

	ctx := c.Request().Context()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internalError(c, "begin signup", err)
	}
	defer tx.Rollback()

	acc := account{email: email, name: name}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id`,
		email, string(hash), name,
	).Scan(&acc.id)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return apiError(c, http.StatusUnprocessableEntity, remote.CodeUserExists, "user already registered")
		}
		return internalError(c, "insert user", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id) VALUES ($1)`, acc.id); err != nil {
		return internalError(c, "insert profile", err)
	}
	if err := tx.Commit(); err != nil {
		return internalError(c, "commit signup", err)
	}

	logger.Info("User registered", logger.F("user_id", acc.id))
	return s.respondSession(c, acc)
}

// handleToken signs in with a password or exchanges a refresh token,
// depending on grant_type.
func (s *Server) handleToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "invalid request")
	}

	switch c.QueryParam("grant_type") {
	case "password":
		return s.passwordGrant(c, req)
	case "refresh_token":
		return s.refreshGrant(c, req)
	default:
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "unsupported grant_type")
	}
}

func (s *Server) passwordGrant(c echo.Context, req tokenRequest) error {
	acc := account{email: normalizeEmail(req.Email)}
	var passwordHash string
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT id, password_hash, name FROM users WHERE email = $1`,
		acc.email,
	).Scan(&acc.id, &passwordHash, &acc.name)
	if errors.Is(err, sql.ErrNoRows) {
		return apiError(c, http.StatusBadRequest, remote.CodeInvalidCredentials, "invalid login credentials")
	}
	if err != nil {
		return internalError(c, "find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		return apiError(c, http.StatusBadRequest, remote.CodeInvalidCredentials, "invalid login credentials")
	}

	logger.Info("User signed in", logger.F("user_id", acc.id))
	return s.respondSession(c, acc)
}

// refreshGrant rotates a refresh token. The old token is consumed even when
// it turns out to be expired.
func (s *Server) refreshGrant(c echo.Context, req tokenRequest) error {
	if req.RefreshToken == "" {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "refresh_token is required")
	}
	ctx := c.Request().Context()

	var acc account
	var expired bool
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING user_id, expires_at < NOW()`,
		req.RefreshToken,
	).Scan(&acc.id, &expired)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && expired) {
		return apiError(c, http.StatusUnauthorized, remote.CodeInvalidToken, "invalid refresh token")
	}
	if err != nil {
		return internalError(c, "consume refresh token", err)
	}

	acc, err = s.findAccount(ctx, acc.id)
	if errors.Is(err, sql.ErrNoRows) {
		return apiError(c, http.StatusUnauthorized, remote.CodeInvalidToken, "invalid refresh token")
	}
	if err != nil {
		return internalError(c, "find user", err)
	}
	return s.respondSession(c, acc)
}

// handleLogout revokes every refresh token of the caller.
func (s *Server) handleLogout(c echo.Context) error {
	uid := userID(c)
	if _, err := s.db.ExecContext(c.Request().Context(),
		`DELETE FROM refresh_tokens WHERE user_id = $1`, uid); err != nil {
		return internalError(c, "revoke tokens", err)
	}
	logger.Info("User signed out", logger.F("user_id", uid))
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleGetUser(c echo.Context) error {
	acc, err := s.findAccount(c.Request().Context(), userID(c))
	if errors.Is(err, sql.ErrNoRows) {
		return apiError(c, http.StatusNotFound, remote.CodeNotFound, "user not found")
	}
	if err != nil {
		return internalError(c, "find user", err)
	}
	return c.JSON(http.StatusOK, acc.response())
}

// handleUpdateUser changes the caller's password.
func (s *Server) handleUpdateUser(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "invalid request")
	}
	if len(req.Password) < minPasswordLength {
		return apiError(c, http.StatusBadRequest, remote.CodeValidation, "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return internalError(c, "hash password", err)
	}

	acc := account{id: userID(c)}
	err = s.db.QueryRowContext(c.Request().Context(), `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING email, name`,
		string(hash), acc.id,
	).Scan(&acc.email, &acc.name)
	if errors.Is(err, sql.ErrNoRows) {
		return apiError(c, http.StatusNotFound, remote.CodeNotFound, "user not found")
	}
	if err != nil {
		return internalError(c, "update password", err)
	}

	logger.Info("Password changed", logger.F("user_id", acc.id))
	return c.JSON(http.StatusOK, acc.response())
}

func (s *Server) findAccount(ctx context.Context, id string) (account, error) {
	acc := account{id: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT email, name FROM users WHERE id = $1`,
		id,
	).Scan(&acc.email, &acc.name)
	return acc, err
}

// respondSession issues an access token and a stored refresh token for acc.
func (s *Server) respondSession(c echo.Context, acc account) error {
	now := s.now()
	expiresAt := now.Add(s.cfg.AccessTokenTTL)

	access, err := GenerateToken(acc.id, acc.email, s.cfg.JWTSecret, now, expiresAt)
	if err != nil {
		return internalError(c, "sign token", err)
	}
	refresh, err := generateRefreshToken()
	if err != nil {
		return internalError(c, "refresh token", err)
	}

	_, err = s.db.ExecContext(c.Request().Context(), `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)`,
		refresh, acc.id, now.Add(s.cfg.RefreshTokenTTL),
	)
	if err != nil {
		return internalError(c, "store refresh token", err)
	}

	return c.JSON(http.StatusOK, sessionResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.cfg.AccessTokenTTL.Seconds()),
		ExpiresAt:    expiresAt.Unix(),
		User:         acc.response(),
	})
}
