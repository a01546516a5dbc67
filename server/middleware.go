package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/wedplan/internal/remote"
)

// authMiddleware checks the bearer access token and stores the caller's id
// in the context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return apiError(c, http.StatusUnauthorized, remote.CodeInvalidToken, "authorization required")
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth {
			return apiError(c, http.StatusUnauthorized, remote.CodeInvalidToken, "invalid authorization format")
		}

		claims, err := ParseToken(token, s.cfg.JWTSecret)
		if err != nil {
			return apiError(c, http.StatusUnauthorized, remote.CodeInvalidToken, "invalid or expired token")
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		return next(c)
	}
}
