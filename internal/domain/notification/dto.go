package notification

import (
	"time"
)

// Response for API responses
type Response struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Body      string  `json:"body,omitempty"`
	Data      *Data   `json:"data,omitempty"`
	IsRead    bool    `json:"is_read"`
	ReadAt    *string `json:"read_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// ResponseFromEntity converts entity to response DTO
func ResponseFromEntity(n *Notification) *Response {
	resp := &Response{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}

	if len(n.Data) > 0 {
		resp.Data = n.GetData()
	}

	if n.ReadAt != nil {
		readAt := n.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &readAt
	}

	return resp
}

// ListResponse for list endpoint
type ListResponse struct {
	Notifications []*Response `json:"notifications"`
	UnreadCount   int64       `json:"unread_count"`
	Total         int64       `json:"total"`
}

// UnreadCountResponse for unread count endpoint
type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

// MarkAllReadResponse reports how many rows a read-all flipped.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
