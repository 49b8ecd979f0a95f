package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// ContextUserKey is where RequireSession stores the session user.
const ContextUserKey = "user"

// ctxUser returns the session user injected by the session middleware.
// A missing user means the route was registered without the guard; reject
// with 401 rather than act anonymously.
func ctxUser(c echo.Context) (domain.User, error) {
	u, ok := c.Get(ContextUserKey).(domain.User)
	if !ok || u.ID == "" {
		return domain.User{}, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return u, nil
}
