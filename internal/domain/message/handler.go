package message

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookswap/internal/pkg/response"
	"bookswap/internal/pkg/validation"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Send posts a message into a request thread.
// @Summary		Send a message
// @Description	Appends a message to an accepted request's thread and notifies the other participant. Threads on pending or rejected requests are closed.
// @Tags		Messages
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		id		path	string		true	"Request ID"
// @Param		request	body	SendRequest	true	"Message body"
// @Success		201	{object}	map[string]interface{} "The created message"
// @Failure		400	{object}	map[string]interface{} "Empty or oversized body"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "Not a participant"
// @Failure		404	{object}	map[string]interface{} "Request not found"
// @Failure		409	{object}	map[string]interface{} "Thread not open"
// @Router		/requests/{id}/messages [POST]
func (h *Handler) Send(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message body is required", validation.FieldErrors(err))
		return
	}

	msg, err := h.service.Send(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		h.writeError(c, err, "SEND_FAILED", "Failed to send message")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// List returns a request thread.
// @Summary		List thread messages
// @Description	Returns the request's messages oldest first. Only the two participants may read the thread.
// @Tags		Messages
// @Security	BearerAuth
// @Produce		json
// @Param		id		path	string	true	"Request ID"
// @Param		limit	query	int		false	"Maximum number of messages (default 100, max 200)"
// @Param		offset	query	int		false	"Paging offset"
// @Success		200	{object}	ListResponse "The thread"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "Not a participant"
// @Failure		404	{object}	map[string]interface{} "Request not found"
// @Router		/requests/{id}/messages [GET]
func (h *Handler) List(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	limit := 0
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

	messages, total, err := h.service.List(c.Request.Context(), userID, c.Param("id"), limit, offset)
	if err != nil {
		h.writeError(c, err, "FETCH_FAILED", "Failed to list messages")
		return
	}

	response.Success(c, http.StatusOK, ListResponse{Messages: messages, Total: total})
}

func (h *Handler) writeError(c *gin.Context, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Message body must be 1-2000 characters")
	case errors.Is(err, ErrRequestNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Request not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not part of this request")
	case errors.Is(err, ErrThreadClosed):
		response.Error(c, http.StatusConflict, "THREAD_CLOSED", "Messages are only open on accepted requests")
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
