package message

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/notification"
	"bookswap/internal/realtime"
)

// Service runs request threads. Threads exist only between the two
// participants of an accepted request; every message notifies the other side
// in the same transaction and goes out on the change feed after commit.
type Service struct {
	db       *gorm.DB
	repo     *Repository
	requests RequestLookup
	users    MemberDirectory
	notifs   Notifier
	events   realtime.Bus
}

func NewService(db *gorm.DB, repo *Repository, requests RequestLookup, users MemberDirectory, notifs Notifier, events realtime.Bus) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		requests: requests,
		users:    users,
		notifs:   notifs,
		events:   events,
	}
}

// Send appends to an accepted request's thread and notifies the other
// participant.
func (s *Service) Send(ctx context.Context, senderID int64, requestID string, req SendRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" || len([]rune(body)) > 2000 {
		return nil, ErrValidation
	}

	request, err := s.lookupRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if senderID != request.RequesterID && senderID != request.OwnerID {
		return nil, ErrForbidden
	}
	if request.Status != exchange.StatusAccepted {
		return nil, ErrThreadClosed
	}

	recipientID := request.RequesterID
	if senderID == request.RequesterID {
		recipientID = request.OwnerID
	}

	msg := &Message{
		ID:        uuid.NewString(),
		RequestID: request.ID,
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	senderName := s.displayName(ctx, senderID)

	var created *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, msg); err != nil {
			return err
		}
		n, err := s.notifs.NotifyNewMessage(ctx, tx, recipientID, senderName, body, request.ID, msg.ID)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMessage(ctx, msg, request)
	s.notifs.Publish(ctx, created)
	return msg, nil
}

// List returns the thread, participants only, oldest first.
func (s *Service) List(ctx context.Context, userID int64, requestID string, limit, offset int) ([]Message, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	request, err := s.lookupRequest(ctx, requestID)
	if err != nil {
		return nil, 0, err
	}
	if userID != request.RequesterID && userID != request.OwnerID {
		return nil, 0, ErrForbidden
	}

	return s.repo.ListByRequest(ctx, request.ID, limit, offset)
}

func (s *Service) lookupRequest(ctx context.Context, requestID string) (*exchange.Request, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return request, nil
}

func (s *Service) publishMessage(ctx context.Context, msg *Message, request *exchange.Request) {
	if s.events == nil {
		return
	}
	for _, userID := range []int64{request.RequesterID, request.OwnerID} {
		evt, err := realtime.NewEvent(realtime.ResourceMessages, realtime.ActionInsert, userID, msg)
		if err != nil {
			slog.Warn("failed to build message event", "message_id", msg.ID, "error", err)
			return
		}
		if err := s.events.Publish(ctx, evt); err != nil {
			slog.Warn("failed to publish message event", "message_id", msg.ID, "error", err)
		}
	}
}

func (s *Service) displayName(ctx context.Context, userID int64) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("failed to load user for notification text", "user_id", userID, "error", err)
		return "A fellow swapper"
	}
	return user.DisplayName
}
