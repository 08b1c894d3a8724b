package message

// SendRequest carries one new thread message.
type SendRequest struct {
	Body string `json:"body" binding:"required,max=2000"`
}

// ListResponse returns a thread oldest first, the order it reads in.
type ListResponse struct {
	Messages []Message `json:"messages"`
	Total    int64     `json:"total"`
}
