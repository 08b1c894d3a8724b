package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookswap/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the current user's notifications.
// @Summary		List notifications
// @Description	Returns the user's newest notifications together with the derived unread counter. Supports limit and offset paging.
// @Tags		Notifications
// @Security	BearerAuth
// @Param		limit	query	int	false	"Maximum number of notifications (default 20, max 100)"
// @Param		offset	query	int	false	"Paging offset (default 0)"
// @Success		200	{object}	ListResponse "Notifications plus unread count"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		500	{object}	map[string]interface{} "Failed to load notifications"
// @Router		/notifications [GET]
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	limit := 20
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}

	offset := 0
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	notifications, unread, total, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get notifications")
		return
	}

	items := make([]*Response, len(notifications))
	for i := range notifications {
		items[i] = ResponseFromEntity(&notifications[i])
	}

	response.Success(c, http.StatusOK, ListResponse{
		Notifications: items,
		UnreadCount:   unread,
		Total:         total,
	})
}

// UnreadCount returns the unread badge value.
// @Summary		Get unread count
// @Description	Returns how many of the user's notifications are still unread. The value is computed from the rows, never stored.
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	UnreadCountResponse "Unread notification count"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		500	{object}	map[string]interface{} "Failed to count"
// @Router		/notifications/unread-count [GET]
func (h *Handler) UnreadCount(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	unread, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get unread count")
		return
	}

	response.Success(c, http.StatusOK, UnreadCountResponse{UnreadCount: unread})
}

// MarkRead marks one notification as read.
// @Summary		Mark notification as read
// @Description	Marks a notification as read. Marking an already read notification succeeds and changes nothing.
// @Tags		Notifications
// @Security	BearerAuth
// @Param		id	path	int	true	"Notification ID"
// @Success		200	{object}	map[string]interface{} "Notification marked as read"
// @Failure		400	{object}	map[string]interface{} "Invalid notification ID"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		404	{object}	map[string]interface{} "Notification not found"
// @Failure		500	{object}	map[string]interface{} "Failed to update"
// @Router		/notifications/{id}/read [PATCH]
func (h *Handler) MarkRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to mark as read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "read"})
}

// MarkAllRead marks every unread notification as read.
// @Summary		Mark all notifications as read
// @Description	Marks all of the user's unread notifications as read in one call and reports how many rows changed.
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	MarkAllReadResponse "Number of notifications flipped"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		500	{object}	map[string]interface{} "Failed to update"
// @Router		/notifications/read-all [POST]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to mark as read")
		return
	}

	response.Success(c, http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// Delete removes one notification.
// @Summary		Delete notification
// @Description	Deletes one of the user's notifications.
// @Tags		Notifications
// @Security	BearerAuth
// @Param		id	path	int	true	"Notification ID"
// @Success		200	{object}	map[string]interface{} "Notification deleted"
// @Failure		400	{object}	map[string]interface{} "Invalid notification ID"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		404	{object}	map[string]interface{} "Notification not found"
// @Failure		500	{object}	map[string]interface{} "Failed to delete"
// @Router		/notifications/{id} [DELETE]
func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Notification not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "DELETE_FAILED", "Failed to delete notification")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}
