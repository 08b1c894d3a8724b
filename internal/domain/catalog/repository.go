package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// BookFilters narrows a browse query. Zero values mean "no filter".
type BookFilters struct {
	Genre     string
	Condition string
	Status    string
	OwnerID   int64
	// ExcludeOwnerID drops one owner's books, so browsing users don't see
	// their own shelf in the marketplace.
	ExcludeOwnerID int64
	Search         string
	Limit          int
	Offset         int
	SortBy         string
	SortOrder      string
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, b *Book) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns books matching the filters plus the unpaged total.
func (r *Repository) List(ctx context.Context, f BookFilters) ([]Book, int64, error) {
	var books []Book
	var total int64

	q := r.db.WithContext(ctx).Model(&Book{})

	if f.Genre != "" {
		q = q.Where("genre = ?", f.Genre)
	}
	if f.Condition != "" {
		q = q.Where("condition = ?", f.Condition)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OwnerID != 0 {
		q = q.Where("owner_id = ?", f.OwnerID)
	}
	if f.ExcludeOwnerID != 0 {
		q = q.Where("owner_id <> ?", f.ExcludeOwnerID)
	}
	if f.Search != "" {
		s := strings.ToLower(strings.TrimSpace(f.Search))
		if s != "" {
			q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", "%"+s+"%", "%"+s+"%")
		}
	}

	// Sorting (whitelist)
	sortOrder := strings.ToLower(strings.TrimSpace(f.SortOrder))
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	orderExpr := "created_at"
	switch strings.ToLower(strings.TrimSpace(f.SortBy)) {
	case "title":
		orderExpr = "title"
	case "author":
		orderExpr = "author"
	case "created_at", "":
	}
	q = q.Order(orderExpr + " " + strings.ToUpper(sortOrder))

	// Clone query before counting so Count does not eat the ORDER/LIMIT
	countQuery := q.Session(&gorm.Session{})
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Limit(f.Limit).Offset(f.Offset).Find(&books).Error
	return books, total, err
}

func (r *Repository) Update(ctx context.Context, b *Book) error {
	return r.db.WithContext(ctx).Save(b).Error
}

// SetStatus updates the lifecycle state inside the caller's transaction, so
// the flip commits together with the exchange write that caused it.
func (r *Repository) SetStatus(ctx context.Context, tx *gorm.DB, bookID int64, status Status) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Model(&Book{}).
		Where("id = ?", bookID).
		Update("status", status).Error
}
