package catalog

// CreateBookRequest lists a copy on the requester's shelf.
type CreateBookRequest struct {
	Title       string `json:"title" binding:"required"`
	Author      string `json:"author" binding:"required"`
	Genre       string `json:"genre"`
	Condition   string `json:"condition" binding:"required"`
	Description string `json:"description"`
}

// UpdateBookRequest changes a listing. Nil fields stay untouched.
type UpdateBookRequest struct {
	Title       *string `json:"title,omitempty"`
	Author      *string `json:"author,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Condition   *string `json:"condition,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ListBooksResponse for browse and shelf endpoints
type ListBooksResponse struct {
	Books []Book `json:"books"`
	Total int64  `json:"total"`
}
