package auth

import (
	"context"

	"gorm.io/gorm"

	"bookswap/internal/domain/notification"
)

// WelcomeNotifier greets new users. Satisfied by the notification service.
type WelcomeNotifier interface {
	NotifyWelcome(ctx context.Context, tx *gorm.DB, userID int64, displayName string) (*notification.Notification, error)
	Publish(ctx context.Context, n *notification.Notification)
}
