package exchange

// CreateRequestRequest opens a swap request for someone else's book.
type CreateRequestRequest struct {
	BookID  int64  `json:"book_id" binding:"required"`
	Message string `json:"message" binding:"max=1000"`
}

// RespondRequest carries the owner's decision on a pending request.
type RespondRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accepted rejected"`
	Message  string `json:"message" binding:"max=1000"`
}

// ListMineResponse partitions the caller's requests by their role on each.
type ListMineResponse struct {
	Sent     []Request `json:"sent"`
	Received []Request `json:"received"`
}
