package exchange

import "errors"

var (
	ErrNotFound         = errors.New("request not found")
	ErrBookNotFound     = errors.New("book not found")
	ErrOwnBook          = errors.New("cannot request your own book")
	ErrBookUnavailable  = errors.New("book is not available for swapping")
	ErrDuplicateRequest = errors.New("a pending request for this book already exists")
	ErrAlreadyResolved  = errors.New("request is already resolved")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation error")
)
