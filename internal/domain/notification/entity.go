package notification

import (
	"encoding/json"
	"time"
)

// Type classifies a notification for client-side rendering and routing.
type Type string

const (
	TypeBookRequest     Type = "book_request"     // Owner: someone wants one of their books
	TypeRequestAccepted Type = "request_accepted" // Requester: the owner said yes
	TypeRequestRejected Type = "request_rejected" // Requester: the owner declined
	TypeNewMessage      Type = "new_message"      // Either side: new message in a request thread
	TypeSystem          Type = "system"           // Welcome note, platform announcements
)

// Notification is one inbox entry for one user. The unread counter is never
// stored anywhere; it is always derived from is_read.
type Notification struct {
	ID        int64           `gorm:"primaryKey;column:id" json:"id"`
	UserID    int64           `gorm:"column:user_id;index:idx_notifications_user_unread,priority:1" json:"user_id"`
	Type      Type            `gorm:"column:type" json:"type"`
	Title     string          `gorm:"column:title" json:"title"`
	Body      string          `gorm:"column:body" json:"body,omitempty"`
	Data      json.RawMessage `gorm:"column:data" json:"data,omitempty"`
	IsRead    bool            `gorm:"column:is_read;index:idx_notifications_user_unread,priority:2" json:"is_read"`
	ReadAt    *time.Time      `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `gorm:"column:created_at;index:idx_notifications_user_created" json:"created_at"`
}

// TableName specifies table name for GORM
func (Notification) TableName() string {
	return "notifications"
}

// Data links a notification back to the records it talks about.
type Data struct {
	RequestID       string `json:"request_id,omitempty"`
	BookID          int64  `json:"book_id,omitempty"`
	BookTitle       string `json:"book_title,omitempty"`
	MessageID       string `json:"message_id,omitempty"`
	SenderName      string `json:"sender_name,omitempty"`
	ResponseMessage string `json:"response_message,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *Data) error {
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return err
		}
		n.Data = b
	}
	return nil
}

// GetData decodes data from JSON
func (n *Notification) GetData() *Data {
	if len(n.Data) == 0 {
		return &Data{}
	}
	var data Data
	_ = json.Unmarshal(n.Data, &data)
	return &data
}
