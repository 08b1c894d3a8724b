package catalog

import "time"

// Condition grades how worn a copy is.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionWorn    Condition = "worn"
)

// ValidCondition reports whether c is one of the known grades.
func ValidCondition(c Condition) bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionWorn:
		return true
	}
	return false
}

// Status tracks where a book stands in its swap lifecycle.
type Status string

const (
	StatusAvailable Status = "available" // listed and open to requests
	StatusReserved  Status = "reserved"  // held by an accepted request
	StatusSwapped   Status = "swapped"   // handed over, kept for history
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusSwapped:
		return true
	}
	return false
}

// Book is one listed copy. A user lists the physical copies they are willing
// to give away; the same title listed by two users is two rows.
type Book struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	OwnerID     int64     `json:"owner_id" gorm:"index:idx_books_owner"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre,omitempty"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status" gorm:"index:idx_books_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
