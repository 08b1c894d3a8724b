package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"bookswap/internal/realtime"
)

// Service owns the inbox. Other domains create notifications through the
// typed Notify* helpers; helpers that run inside the caller's transaction
// return the created row so the caller can announce it after commit.
type Service struct {
	repo   *Repository
	events realtime.Bus
}

func NewService(repo *Repository, events realtime.Bus) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) Create(ctx context.Context, tx *gorm.DB, userID int64, t Type, title, body string, data *Data) (*Notification, error) {
	n := &Notification{
		UserID:    userID,
		Type:      t,
		Title:     title,
		Body:      body,
		IsRead:    false,
		CreatedAt: time.Now(),
	}
	if err := n.SetData(data); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// Publish announces a committed notification on the change feed. Callers that
// created the notification inside their own transaction call this once the
// transaction is through.
func (s *Service) Publish(ctx context.Context, n *Notification) {
	s.publish(ctx, realtime.ActionInsert, n)
}

func (s *Service) publish(ctx context.Context, action realtime.Action, n *Notification) {
	if s.events == nil {
		return
	}
	evt, err := realtime.NewEvent(realtime.ResourceNotifications, action, n.UserID, n)
	if err != nil {
		slog.Warn("failed to build notification event", "error", err)
		return
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		slog.Warn("failed to publish notification event", "notification_id", n.ID, "error", err)
	}
}

// List returns the newest notifications with the derived unread counter and
// the total row count for paging.
func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, int64, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	list, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	total, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return list, unread, total, nil
}

// UnreadCount derives the badge value from unread rows.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// MarkRead flips one notification to read. Marking an already read
// notification succeeds without doing anything, so clients can retry freely;
// only a real flip goes out on the change feed.
func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if n.IsRead {
		return nil
	}

	flipped, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !flipped {
		// Another reader got there first.
		return nil
	}

	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	s.publish(ctx, realtime.ActionUpdate, n)
	return nil
}

// MarkAllRead flips every unread notification and announces each flipped row,
// so other devices patch exactly the rows that changed.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ids, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	if s.events != nil {
		rows, err := s.repo.ListByIDs(ctx, userID, ids)
		if err != nil {
			slog.Warn("failed to load notifications for change feed", "error", err)
		} else {
			for i := range rows {
				s.publish(ctx, realtime.ActionUpdate, &rows[i])
			}
		}
	}

	return int64(len(ids)), nil
}

// Delete removes one notification and announces the removal.
func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	deleted, err := s.repo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if deleted {
		s.publish(ctx, realtime.ActionDelete, n)
	}
	return nil
}

// NotifyBookRequested tells a book's owner that someone wants to swap for it.
func (s *Service) NotifyBookRequested(ctx context.Context, tx *gorm.DB, ownerID int64, requesterName, bookTitle, requestID string, bookID int64) (*Notification, error) {
	return s.Create(
		ctx, tx, ownerID,
		TypeBookRequest,
		"New book request",
		fmt.Sprintf("%s wants to swap for %q", requesterName, bookTitle),
		&Data{
			RequestID:  requestID,
			BookID:     bookID,
			BookTitle:  bookTitle,
			SenderName: requesterName,
		},
	)
}

// NotifyRequestAccepted tells the requester the owner said yes. The owner's
// reply text travels in both the body and the structured data.
func (s *Service) NotifyRequestAccepted(ctx context.Context, tx *gorm.DB, requesterID int64, bookTitle, requestID, responseMessage string, bookID int64) (*Notification, error) {
	body := fmt.Sprintf("Your request for %q was accepted", bookTitle)
	if responseMessage != "" {
		body = body + ": " + responseMessage
	}
	return s.Create(
		ctx, tx, requesterID,
		TypeRequestAccepted,
		"Request accepted",
		body,
		&Data{
			RequestID:       requestID,
			BookID:          bookID,
			BookTitle:       bookTitle,
			ResponseMessage: responseMessage,
		},
	)
}

// NotifyRequestRejected tells the requester the owner declined.
func (s *Service) NotifyRequestRejected(ctx context.Context, tx *gorm.DB, requesterID int64, bookTitle, requestID, responseMessage string, bookID int64) (*Notification, error) {
	body := fmt.Sprintf("Your request for %q was declined", bookTitle)
	if responseMessage != "" {
		body = body + ": " + responseMessage
	}
	return s.Create(
		ctx, tx, requesterID,
		TypeRequestRejected,
		"Request declined",
		body,
		&Data{
			RequestID:       requestID,
			BookID:          bookID,
			BookTitle:       bookTitle,
			ResponseMessage: responseMessage,
		},
	)
}

// NotifyNewMessage tells the other side of a request thread about a new
// message.
func (s *Service) NotifyNewMessage(ctx context.Context, tx *gorm.DB, recipientID int64, senderName, preview, requestID, messageID string) (*Notification, error) {
	if r := []rune(preview); len(r) > 80 {
		preview = string(r[:80]) + "..."
	}
	return s.Create(
		ctx, tx, recipientID,
		TypeNewMessage,
		"New message",
		fmt.Sprintf("%s: %s", senderName, preview),
		&Data{
			RequestID:  requestID,
			MessageID:  messageID,
			SenderName: senderName,
		},
	)
}

// NotifyWelcome greets a freshly registered user.
func (s *Service) NotifyWelcome(ctx context.Context, tx *gorm.DB, userID int64, displayName string) (*Notification, error) {
	return s.Create(
		ctx, tx, userID,
		TypeSystem,
		"Welcome to BookSwap",
		fmt.Sprintf("Hi %s! List a few books you are done with and start swapping.", displayName),
		nil,
	)
}
