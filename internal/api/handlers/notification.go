package handlers

import (
	"net/http"
	"strconv"

	"realtime-threads/internal/service"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// @Summary List notifications
// @Description Notifications for the caller, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unreadonly query bool false "Only unread notifications"
// @Success 200 {array} models.NotificationResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := false
	if raw := c.Query("unreadonly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid unreadonly", "")
			return
		}
		unreadOnly = v
	}

	notifications, err := h.notificationService.List(c.Request.Context(), currentUserID(c), unreadOnly)
	if err != nil {
		serviceError(c, err)
		return
	}
	response.OK(c, notifications)
}

// MarkRead godoc
// @Summary Mark a notification read
// @Description Idempotent; the first read time is kept
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), currentUserID(c), id); err != nil {
		serviceError(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every notification read
// @Tags notifications
// @Security BearerAuth
// @Success 204
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if _, err := h.notificationService.MarkAllRead(c.Request.Context(), currentUserID(c)); err != nil {
		serviceError(c, err)
		return
	}
	response.NoContent(c)
}
