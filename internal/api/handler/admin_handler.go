package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// UserCounter reports the roster size for the dashboard.
type UserCounter interface {
	Count(ctx context.Context) (int, error)
}

// AdminHandler serves the moderation dashboard. Routes are guarded by RBAC.
type AdminHandler struct {
	admin   ports.AdminService
	catalog ports.CatalogService
	users   UserCounter
}

func NewAdminHandler(admin ports.AdminService, catalog ports.CatalogService, users UserCounter) *AdminHandler {
	return &AdminHandler{admin: admin, catalog: catalog, users: users}
}

// Users handles GET /v1/admin/users.
//
// @Summary      List registered users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/users [get]
func (h *AdminHandler) Users(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	users, err := h.admin.Users(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// RemoveUser handles DELETE /v1/admin/users/:id.
//
// @Summary      Remove a user and their listings
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [delete]
func (h *AdminHandler) RemoveUser(c echo.Context) error {
	actor, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.admin.RemoveUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user deleted"})
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Catalog statistics for the dashboard charts
// @Tags         admin
// @Produce      json
// @Param        kind  query     string  false  "item or music; empty for the whole catalog"
// @Success      200   {object}  catalogStatsResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	kind := domain.ListingKind(c.QueryParam("kind"))
	if kind != "" && !kind.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "kind must be one of: item music")
	}

	ctx := c.Request().Context()
	stats, err := h.catalog.Stats(ctx, kind)
	if err != nil {
		return err
	}
	users, err := h.users.Count(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStatsResponse(stats, users))
}

// Refresh handles POST /v1/admin/refresh.
//
// @Summary      Reload the catalog from the marketplace API
// @Tags         admin
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/admin/refresh [post]
func (h *AdminHandler) Refresh(c echo.Context) error {
	if err := h.catalog.Refresh(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "catalog refreshed"})
}
