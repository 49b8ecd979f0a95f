package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// CurrentUser reports the user of the active session, or nil.
type CurrentUser interface {
	Current() *domain.User
}

// RequireSession rejects requests while nobody is signed in and injects the
// session user and role into the context.
func RequireSession(sessions CurrentUser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := sessions.Current()
			if u == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set("user", *u)
			c.Set("role", u.Role)

			return next(c)
		}
	}
}
