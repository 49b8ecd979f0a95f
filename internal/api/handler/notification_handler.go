package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// NotificationFeed is the read side of the toast feed.
type NotificationFeed interface {
	Recent(limit int) []domain.Notification
	Dismiss(id string)
}

type NotificationHandler struct {
	feed NotificationFeed
}

func NewNotificationHandler(feed NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

// List handles GET /v1/notifications.
//
// @Summary      Live notifications, newest first
// @Tags         notifications
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of notifications (0 = all)"
// @Success      200    {array}   domain.Notification
// @Failure      400    {object}  errorResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = v
	}
	return c.JSON(http.StatusOK, h.feed.Recent(limit))
}

// Dismiss handles DELETE /v1/notifications/:id.
//
// @Summary      Dismiss a notification
// @Tags         notifications
// @Param        id  path  string  true  "Notification ID"
// @Success      204
// @Router       /v1/notifications/{id} [delete]
func (h *NotificationHandler) Dismiss(c echo.Context) error {
	h.feed.Dismiss(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
