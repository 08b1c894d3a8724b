package catalog

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID int64, req CreateBookRequest) (*Book, error) {
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		return nil, ErrValidation
	}

	cond := Condition(req.Condition)
	if !ValidCondition(cond) {
		return nil, ErrValidation
	}

	b := &Book{
		OwnerID:     ownerID,
		Title:       title,
		Author:      author,
		Genre:       strings.TrimSpace(req.Genre),
		Condition:   cond,
		Description: req.Description,
		Status:      StatusAvailable,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Book, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// Browse lists books across all shelves. With no explicit status filter only
// available copies show up; status=all drops the filter entirely.
func (s *Service) Browse(ctx context.Context, f BookFilters) ([]Book, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	switch f.Status {
	case "":
		f.Status = string(StatusAvailable)
	case "all":
		f.Status = ""
	default:
		if !ValidStatus(Status(f.Status)) {
			return nil, 0, ErrValidation
		}
	}

	if f.Condition != "" && !ValidCondition(Condition(f.Condition)) {
		return nil, 0, ErrValidation
	}

	return s.repo.List(ctx, f)
}

// MyShelf lists every book the user has listed, whatever its state.
func (s *Service) MyShelf(ctx context.Context, ownerID int64, limit, offset int) ([]Book, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, BookFilters{
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	})
}

// Update edits a listing. Only the owner may edit, and manual status changes
// are limited to available and swapped; reserved belongs to the exchange flow.
func (s *Service) Update(ctx context.Context, bookID, userID int64, req UpdateBookRequest) (*Book, error) {
	b, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if b.OwnerID != userID {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return nil, ErrValidation
		}
		b.Title = t
	}
	if req.Author != nil {
		a := strings.TrimSpace(*req.Author)
		if a == "" {
			return nil, ErrValidation
		}
		b.Author = a
	}
	if req.Genre != nil {
		b.Genre = strings.TrimSpace(*req.Genre)
	}
	if req.Condition != nil {
		cond := Condition(*req.Condition)
		if !ValidCondition(cond) {
			return nil, ErrValidation
		}
		b.Condition = cond
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.Status != nil {
		status := Status(*req.Status)
		if status != StatusAvailable && status != StatusSwapped {
			return nil, ErrValidation
		}
		b.Status = status
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
