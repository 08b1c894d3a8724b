package notification

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a notification. Callers that need the insert to commit or
// roll back together with their own writes pass their transaction handle;
// passing nil uses the repository's own connection.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, n *Notification) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(n).Error
}

func (r *Repository) GetByID(ctx context.Context, id, userID int64) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Notification, error) {
	var out []Notification
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *Repository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]Notification, error) {
	var out []Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *Repository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *Repository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips one notification to read and reports whether this call
// changed the row. A notification that is already read matches nothing, so
// the flip stays idempotent under retries.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkAllRead flips every unread notification for the user and returns the
// IDs it touched.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Notification{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Order("created_at DESC, id DESC").
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&Notification{}).
			Where("id IN ?", ids).
			Updates(map[string]any{"is_read": true, "read_at": time.Now()}).Error
	})
	return ids, err
}

// Delete removes one notification owned by the user.
func (r *Repository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Notification{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteOlderThan removes notifications past the retention window and returns
// how many rows went away.
func (r *Repository) DeleteOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge)
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&Notification{})
	return res.RowsAffected, res.Error
}
