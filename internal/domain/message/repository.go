package message

import (
	"context"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, tx *gorm.DB, m *Message) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(m).Error
}

// ListByRequest returns a thread oldest first plus the unpaged total.
func (r *Repository) ListByRequest(ctx context.Context, requestID string, limit, offset int) ([]Message, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("request_id = ?", requestID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var out []Message
	err = r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, total, err
}
