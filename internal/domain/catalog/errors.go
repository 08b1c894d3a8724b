package catalog

import "errors"

var (
	ErrNotFound   = errors.New("book not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation error")
)
