// Package middleware holds the echo middleware: bearer auth, admin gating,
// request logging and rate limiting.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkharitonov/task_manager/internal/apperr"
	"github.com/dkharitonov/task_manager/internal/models"
	"github.com/dkharitonov/task_manager/internal/repo"
	"github.com/dkharitonov/task_manager/internal/tokens"
)

const userContextKey = "current_user"

// RequireAuth validates the bearer access token and loads the user behind
// it. A valid token for a deleted user is a 404; a blocked user is refused
// here so a block takes effect before the access token expires.
func RequireAuth(r repo.GormRepo, accessSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				return apperr.Unauthorized("missing or malformed authorization header")
			}

			claims, err := tokens.ParseAccessToken(strings.TrimPrefix(header, "Bearer "), accessSecret)
			if err != nil {
				return apperr.Unauthorized("invalid or expired access token")
			}
			userID, err := claims.UserID()
			if err != nil {
				return apperr.Unauthorized("invalid or expired access token")
			}

			user, err := r.FindUserByID(c.Request().Context(), userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("user not found")
				}
				return err
			}
			if user.IsBlocked {
				return c.JSON(http.StatusForbidden, map[string]any{
					"message": "user is blocked",
					"errCode": apperr.CodeBlocked,
					"data":    map[string]any{"isBlocked": true},
				})
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil || user.Role != models.RoleAdmin {
				return apperr.Forbidden("admin access required")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user, or nil outside RequireAuth.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
