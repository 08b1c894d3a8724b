package exchange

import (
	"errors"
	"net/http"

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

// Create opens a swap request.
// @Summary		Request a book
// @Description	Opens a pending swap request for another user's available book and notifies the owner. A requester can hold at most one pending request per book.
// @Tags		Requests
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		request	body	CreateRequestRequest	true	"Book to request plus an optional message to the owner"
// @Success		201	{object}	map[string]interface{} "The created request"
// @Failure		400	{object}	map[string]interface{} "Missing or invalid fields"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "The caller owns this book"
// @Failure		404	{object}	map[string]interface{} "Book not found"
// @Failure		409	{object}	map[string]interface{} "Book unavailable or request already pending"
// @Router		/requests [POST]
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validation.FieldErrors(err))
		return
	}

	request, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err, "CREATE_FAILED", "Failed to create request")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"request": request})
}

// Respond answers a pending request.
// @Summary		Respond to a request
// @Description	Accepts or rejects a pending request for one of the caller's books. The decision is final; answering twice fails with INVALID_STATE. Accepting reserves the book and both outcomes notify the requester.
// @Tags		Requests
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		id		path	string			true	"Request ID"
// @Param		request	body	RespondRequest	true	"Decision (accepted or rejected) plus an optional reply"
// @Success		200	{object}	map[string]interface{} "The resolved request"
// @Failure		400	{object}	map[string]interface{} "Invalid decision"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "Caller does not own the requested book"
// @Failure		404	{object}	map[string]interface{} "Request not found"
// @Failure		409	{object}	map[string]interface{} "Request already resolved"
// @Router		/requests/{id}/respond [POST]
func (h *Handler) Respond(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	requestID := c.Param("id")
	if requestID == "" {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid request ID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Decision must be accepted or rejected", validation.FieldErrors(err))
		return
	}

	request, err := h.service.Respond(c.Request.Context(), userID, requestID, req)
	if err != nil {
		h.writeError(c, err, "RESPOND_FAILED", "Failed to respond to request")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": request})
}

// Get returns one request.
// @Summary		Get request by ID
// @Description	Returns a single request. Only the requester and the book's owner may see it.
// @Tags		Requests
// @Security	BearerAuth
// @Produce		json
// @Param		id	path	string	true	"Request ID"
// @Success		200	{object}	map[string]interface{} "The request"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "Not a participant"
// @Failure		404	{object}	map[string]interface{} "Request not found"
// @Router		/requests/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	request, err := h.service.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.writeError(c, err, "FETCH_FAILED", "Failed to get request")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"request": request})
}

// ListMine returns the caller's requests from both sides.
// @Summary		My requests
// @Description	Returns the caller's requests partitioned into sent (books they asked for) and received (requests against their own books), newest first.
// @Tags		Requests
// @Security	BearerAuth
// @Produce		json
// @Success		200	{object}	ListMineResponse "Sent and received requests"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		500	{object}	map[string]interface{} "Failed to list requests"
// @Router		/requests/mine [GET]
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	result, err := h.service.ListMine(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list requests")
		return
	}

	response.Success(c, http.StatusOK, result)
}

// writeError maps domain errors onto the response envelope.
func (h *Handler) writeError(c *gin.Context, err error, fallbackCode, fallbackMessage string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request details")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Request not found")
	case errors.Is(err, ErrBookNotFound):
		response.Error(c, http.StatusNotFound, "BOOK_NOT_FOUND", "Book not found")
	case errors.Is(err, ErrOwnBook):
		response.Error(c, http.StatusForbidden, "OWN_BOOK", "You cannot request your own book")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not part of this request")
	case errors.Is(err, ErrBookUnavailable):
		response.Error(c, http.StatusConflict, "BOOK_UNAVAILABLE", "This book is not available for swapping")
	case errors.Is(err, ErrDuplicateRequest):
		response.Error(c, http.StatusConflict, "DUPLICATE_REQUEST", "You already have a pending request for this book")
	case errors.Is(err, ErrAlreadyResolved):
		response.Error(c, http.StatusConflict, "INVALID_STATE", "This request has already been resolved")
	default:
		response.Error(c, http.StatusInternalServerError, fallbackCode, fallbackMessage)
	}
}
