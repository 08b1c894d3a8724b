package exchange

import "time"

// Status is a request's place in its lifecycle. The only transitions are
// pending to accepted and pending to rejected; both are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Terminal reports whether s is a resolved state.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Request is one user's ask to swap for another user's book. The partial
// unique index keeps a requester from holding more than one open request per
// book; resolved requests stay behind as history, so re-requesting after a
// rejection is a new row.
type Request struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	BookID          int64      `json:"book_id" gorm:"index:idx_requests_book;uniqueIndex:ux_requests_pending,where:status = 'pending'"`
	RequesterID     int64      `json:"requester_id" gorm:"index:idx_requests_requester;uniqueIndex:ux_requests_pending,where:status = 'pending'"`
	OwnerID         int64      `json:"owner_id" gorm:"index:idx_requests_owner"`
	Message         string     `json:"message,omitempty"`
	Status          Status     `json:"status"`
	ResponseMessage string     `json:"response_message,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	RespondedAt     *time.Time `json:"responded_at,omitempty"`
}

func (Request) TableName() string {
	return "exchange_requests"
}
