package message

import (
	"context"

	"gorm.io/gorm"

	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/notification"
)

// RequestLookup finds the request a thread hangs off. Implemented by the
// exchange repository.
type RequestLookup interface {
	GetByID(ctx context.Context, id string) (*exchange.Request, error)
}

// MemberDirectory resolves user IDs to profiles for notification texts.
type MemberDirectory interface {
	GetByID(ctx context.Context, id int64) (*auth.User, error)
}

// Notifier tells the other participant about a new message. NotifyNewMessage
// runs inside the caller's transaction and returns the row; Publish announces
// it once the transaction is through.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, tx *gorm.DB, recipientID int64, senderName, preview, requestID, messageID string) (*notification.Notification, error)
	Publish(ctx context.Context, n *notification.Notification)
}
