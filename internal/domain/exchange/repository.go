package exchange

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a request inside the caller's transaction. A violation of
// the partial pending index comes back as ErrDuplicateRequest, so when two
// tabs race past the pre-check the loser still gets the same answer.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, req *Request) error {
	if tx == nil {
		tx = r.db
	}
	err := tx.WithContext(ctx).Create(req).Error
	if isPendingDuplicate(err) {
		return ErrDuplicateRequest
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// HasPending reports whether the requester already holds an open request for
// the book. The index is the real guard; this pre-check turns the common case
// into a friendly error before a transaction starts.
func (r *Repository) HasPending(ctx context.Context, bookID, requesterID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Request{}).
		Where("book_id = ? AND requester_id = ? AND status = ?", bookID, requesterID, StatusPending).
		Count(&count).Error
	return count > 0, err
}

// Resolve flips a pending request to a terminal status inside the caller's
// transaction. The status guard in the WHERE clause means a request resolves
// at most once: losing a respond race reports false instead of overwriting
// the earlier decision.
func (r *Repository) Resolve(ctx context.Context, tx *gorm.DB, id string, status Status, responseMessage string, at time.Time) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&Request{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{
			"status":           status,
			"response_message": responseMessage,
			"responded_at":     at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ListByRequester(ctx context.Context, requesterID int64) ([]Request, error) {
	var out []Request
	err := r.db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID int64) ([]Request, error) {
	var out []Request
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// isPendingDuplicate recognizes violations of the pending index from both
// backends, the same way the auth repository treats duplicate emails.
func isPendingDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
