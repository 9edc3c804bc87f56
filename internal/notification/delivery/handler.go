package delivery

import (
	"strconv"

	notificationusecase "zuzuplan-backend/internal/notification/usecase"
	"zuzuplan-backend/pkg/realtime"
	"zuzuplan-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationUsecase notificationusecase.NotificationUsecase
	hub                 *realtime.Hub
}

func NewNotificationHandler(notificationUsecase notificationusecase.NotificationUsecase, hub *realtime.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationUsecase: notificationUsecase,
		hub:                 hub,
	}
}

// List handles GET /notifications?read=&page&limit.
func (h *NotificationHandler) List(c *gin.Context) {
	var read *bool
	if raw := c.Query("read"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, err)
			return
		}
		read = &v
	}

	page := response.PageFromQuery(c)
	items, total, err := h.notificationUsecase.List(c.Request.Context(), c.GetString("userID"), read, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, items, response.NewPagination(page, total))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationUsecase.UnreadCount(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	n, err := h.notificationUsecase.MarkRead(c.Request.Context(), c.Param("id"), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, n)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationUsecase.MarkAllRead(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"updated": updated})
}

// Events streams the caller's notifications over SSE.
func (h *NotificationHandler) Events(c *gin.Context) {
	h.hub.Serve(c, realtime.UserNotificationsPath(c.GetString("userID")))
}
