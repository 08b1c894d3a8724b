package message

import "time"

// Message is one line in a request's thread. A thread opens when the owner
// accepts the request and the two participants use it to arrange the
// hand-off; messages stay attached to the request as history.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	RequestID string    `json:"request_id" gorm:"index:idx_messages_request"`
	SenderID  int64     `json:"sender_id" gorm:"index:idx_messages_sender"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
