package catalog

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

// Browse lists books across all shelves.
// @Summary		Browse books
// @Description	Lists books with filters for genre, condition and status plus a title/author search. Without a status filter only available books are shown; pass status=all to see everything. Logged-in callers never see their own shelf here; it lives under /books/mine.
// @Tags		Books
// @Accept		json
// @Produce		json
// @Param		genre		query	string	false	"Filter by genre"
// @Param		condition	query	string	false	"Filter by condition (new, like_new, good, worn)"
// @Param		status		query	string	false	"Filter by status (available, reserved, swapped, all)"
// @Param		search		query	string	false	"Search in title and author"
// @Param		sort_by		query	string	false	"Sort field (created_at, title, author)"
// @Param		sort_order	query	string	false	"Sort order (asc, desc)"
// @Param		page		query	int		false	"Page number"
// @Param		limit		query	int		false	"Books per page (max 100)"
// @Success		200	{object}	map[string]interface{} "Books plus paging info"
// @Failure		400	{object}	map[string]interface{} "Invalid filter values"
// @Failure		500	{object}	map[string]interface{} "Server error"
// @Router		/books [GET]
func (h *Handler) Browse(c *gin.Context) {
	var f BookFilters

	f.Genre = c.Query("genre")
	f.Condition = c.Query("condition")
	f.Status = c.Query("status")
	f.Search = c.Query("search")
	f.SortBy = c.DefaultQuery("sort_by", "created_at")
	f.SortOrder = c.DefaultQuery("sort_order", "desc")

	// Browsing is about other people's shelves. A caller's own books stay
	// out of the results whenever we know who they are.
	if viewerID := c.GetInt64("user_id"); viewerID != 0 {
		f.ExcludeOwnerID = viewerID
	}

	f.Limit = 20
	if limit := c.Query("limit"); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil && val > 0 && val <= 100 {
			f.Limit = val
		}
	}

	f.Offset = 0
	if page := c.Query("page"); page != "" {
		if val, err := strconv.Atoi(page); err == nil && val > 0 {
			f.Offset = (val - 1) * f.Limit
		}
	}

	books, total, err := h.service.Browse(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid filter values")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list books")
		return
	}

	totalPages := (int(total) + f.Limit - 1) / f.Limit
	currentPage := (f.Offset / f.Limit) + 1

	response.Success(c, http.StatusOK, gin.H{
		"books": books,
		"pagination": gin.H{
			"page":        currentPage,
			"limit":       f.Limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// Get returns one book.
// @Summary		Get book by ID
// @Description	Returns a single listing with its owner and lifecycle state.
// @Tags		Books
// @Produce		json
// @Param		id	path	int	true	"Book ID"
// @Success		200	{object}	Book "The book"
// @Failure		400	{object}	map[string]interface{} "Invalid book ID"
// @Failure		404	{object}	map[string]interface{} "Book not found"
// @Router		/books/{id} [GET]
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid book ID")
		return
	}

	book, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Book not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to get book")
		return
	}

	response.Success(c, http.StatusOK, book)
}

// Create lists a new book on the caller's shelf.
// @Summary		List a book
// @Description	Adds a copy to the caller's shelf. New listings start as available.
// @Tags		Books
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		request	body	CreateBookRequest	true	"Book details"
// @Success		201	{object}	Book "The created listing"
// @Failure		400	{object}	map[string]interface{} "Missing or invalid fields"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Router		/books [POST]
func (h *Handler) Create(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "title, author and condition are required")
		return
	}

	book, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book details")
			return
		}
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create book")
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// MyShelf lists the caller's own books.
// @Summary		My shelf
// @Description	Lists every book the caller has listed, in any lifecycle state.
// @Tags		Books
// @Security	BearerAuth
// @Produce		json
// @Param		limit	query	int	false	"Books per page (max 100)"
// @Param		offset	query	int	false	"Paging offset"
// @Success		200	{object}	ListBooksResponse "The caller's books"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Router		/books/mine [GET]
func (h *Handler) MyShelf(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	offset := 0
	if s := c.Query("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	books, total, err := h.service.MyShelf(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to list books")
		return
	}

	response.Success(c, http.StatusOK, ListBooksResponse{Books: books, Total: total})
}

// Update edits one of the caller's listings.
// @Summary		Update a book
// @Description	Edits a listing's details. Only the owner may edit. Manual status changes are limited to available and swapped; reserved is driven by the exchange flow.
// @Tags		Books
// @Security	BearerAuth
// @Accept		json
// @Produce		json
// @Param		id		path	int					true	"Book ID"
// @Param		request	body	UpdateBookRequest	true	"Fields to change"
// @Success		200	{object}	Book "The updated listing"
// @Failure		400	{object}	map[string]interface{} "Invalid fields"
// @Failure		401	{object}	map[string]interface{} "Authentication required"
// @Failure		403	{object}	map[string]interface{} "Not the owner"
// @Failure		404	{object}	map[string]interface{} "Book not found"
// @Router		/books/{id} [PATCH]
func (h *Handler) Update(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not authenticated")
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid book ID")
		return
	}

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	book, err := h.service.Update(c.Request.Context(), id, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Book not found")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this book")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book details")
		default:
			response.Error(c, http.StatusInternalServerError, "UPDATE_FAILED", "Failed to update book")
		}
		return
	}

	response.Success(c, http.StatusOK, book)
}
