package exchange

import (
	"context"

	"gorm.io/gorm"

	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/notification"
)

// BookCatalog is the slice of the catalog the exchange flow needs: lookups
// before a request opens, status flips when one is accepted.
type BookCatalog interface {
	GetByID(ctx context.Context, id int64) (*catalog.Book, error)
	SetStatus(ctx context.Context, tx *gorm.DB, bookID int64, status catalog.Status) error
}

// MemberDirectory resolves user IDs to profiles for notification texts.
type MemberDirectory interface {
	GetByID(ctx context.Context, id int64) (*auth.User, error)
}

// Notifier creates the notification each transition owes the counterparty.
// The Notify helpers run inside the caller's transaction and return the row;
// Publish announces it once the transaction is through.
type Notifier interface {
	NotifyBookRequested(ctx context.Context, tx *gorm.DB, ownerID int64, requesterName, bookTitle, requestID string, bookID int64) (*notification.Notification, error)
	NotifyRequestAccepted(ctx context.Context, tx *gorm.DB, requesterID int64, bookTitle, requestID, responseMessage string, bookID int64) (*notification.Notification, error)
	NotifyRequestRejected(ctx context.Context, tx *gorm.DB, requesterID int64, bookTitle, requestID, responseMessage string, bookID int64) (*notification.Notification, error)
	Publish(ctx context.Context, n *notification.Notification)
}
