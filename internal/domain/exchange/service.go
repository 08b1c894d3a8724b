package exchange

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/notification"
	"bookswap/internal/realtime"
)

// Service owns the request lifecycle. Every transition writes the request and
// the counterparty's notification in one transaction, then announces both on
// the change feed once the transaction is through, so no subscriber ever sees
// a transition without its notification.
type Service struct {
	db     *gorm.DB
	repo   *Repository
	books  BookCatalog
	users  MemberDirectory
	notifs Notifier
	events realtime.Bus
}

func NewService(db *gorm.DB, repo *Repository, books BookCatalog, users MemberDirectory, notifs Notifier, events realtime.Bus) *Service {
	return &Service{
		db:     db,
		repo:   repo,
		books:  books,
		users:  users,
		notifs: notifs,
		events: events,
	}
}

// Create opens a pending request for someone else's available book and
// notifies the owner.
func (s *Service) Create(ctx context.Context, requesterID int64, req CreateRequestRequest) (*Request, error) {
	if req.BookID <= 0 {
		return nil, ErrValidation
	}

	book, err := s.books.GetByID(ctx, req.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}
	if book.OwnerID == requesterID {
		return nil, ErrOwnBook
	}
	if book.Status != catalog.StatusAvailable {
		return nil, ErrBookUnavailable
	}

	if dup, err := s.repo.HasPending(ctx, book.ID, requesterID); err != nil {
		return nil, err
	} else if dup {
		return nil, ErrDuplicateRequest
	}

	requesterName := s.displayName(ctx, requesterID)
	now := time.Now()
	request := &Request{
		ID:          uuid.NewString(),
		BookID:      book.ID,
		RequesterID: requesterID,
		OwnerID:     book.OwnerID,
		Message:     strings.TrimSpace(req.Message),
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var created *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, request); err != nil {
			return err
		}
		n, err := s.notifs.NotifyBookRequested(ctx, tx, book.OwnerID, requesterName, book.Title, request.ID, book.ID)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRequest(ctx, realtime.ActionInsert, request)
	s.notifs.Publish(ctx, created)
	return request, nil
}

// Respond resolves a pending request. Only the owner may answer, and only
// once: Resolve's guarded update means a second answer, from this process or
// any other, comes back ErrAlreadyResolved with the first decision untouched.
// Accepting also takes the book off the market.
func (s *Service) Respond(ctx context.Context, ownerID int64, requestID string, req RespondRequest) (*Request, error) {
	decision := Status(strings.ToLower(strings.TrimSpace(req.Decision)))
	if decision != StatusAccepted && decision != StatusRejected {
		return nil, ErrValidation
	}

	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	if request.Status != StatusPending {
		return nil, ErrAlreadyResolved
	}

	bookTitle := s.bookTitle(ctx, request.BookID)
	responseMessage := strings.TrimSpace(req.Message)
	now := time.Now()

	var created *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resolved, err := s.repo.Resolve(ctx, tx, request.ID, decision, responseMessage, now)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrAlreadyResolved
		}

		var n *notification.Notification
		if decision == StatusAccepted {
			if err := s.books.SetStatus(ctx, tx, request.BookID, catalog.StatusReserved); err != nil {
				return err
			}
			n, err = s.notifs.NotifyRequestAccepted(ctx, tx, request.RequesterID, bookTitle, request.ID, responseMessage, request.BookID)
		} else {
			n, err = s.notifs.NotifyRequestRejected(ctx, tx, request.RequesterID, bookTitle, request.ID, responseMessage, request.BookID)
		}
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = decision
	request.ResponseMessage = responseMessage
	request.RespondedAt = &now
	request.UpdatedAt = now

	s.publishRequest(ctx, realtime.ActionUpdate, request)
	s.notifs.Publish(ctx, created)
	return request, nil
}

// Get returns one request, participants only.
func (s *Service) Get(ctx context.Context, userID int64, requestID string) (*Request, error) {
	request, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if request.RequesterID != userID && request.OwnerID != userID {
		return nil, ErrForbidden
	}
	return request, nil
}

// ListMine returns the caller's requests from both sides of the table.
func (s *Service) ListMine(ctx context.Context, userID int64) (*ListMineResponse, error) {
	sent, err := s.repo.ListByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	received, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ListMineResponse{Sent: sent, Received: received}, nil
}

// publishRequest announces a request change to both parties. The feed routes
// by user, so each side gets its own copy of the same payload.
func (s *Service) publishRequest(ctx context.Context, action realtime.Action, request *Request) {
	if s.events == nil {
		return
	}
	for _, userID := range []int64{request.RequesterID, request.OwnerID} {
		evt, err := realtime.NewEvent(realtime.ResourceRequests, action, userID, request)
		if err != nil {
			slog.Warn("failed to build request event", "request_id", request.ID, "error", err)
			return
		}
		if err := s.events.Publish(ctx, evt); err != nil {
			slog.Warn("failed to publish request event", "request_id", request.ID, "error", err)
		}
	}
}

// displayName resolves a user's name for notification text. Failing to load
// it must not fail the transition, so it degrades to a placeholder.
func (s *Service) displayName(ctx context.Context, userID int64) string {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		slog.Warn("failed to load user for notification text", "user_id", userID, "error", err)
		return "A fellow swapper"
	}
	return user.DisplayName
}

func (s *Service) bookTitle(ctx context.Context, bookID int64) string {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		slog.Warn("failed to load book for notification text", "book_id", bookID, "error", err)
		return "your requested book"
	}
	return book.Title
}
