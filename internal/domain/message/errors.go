package message

import "errors"

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrForbidden       = errors.New("forbidden")
	ErrThreadClosed    = errors.New("thread is only open on accepted requests")
	ErrValidation      = errors.New("validation error")
)
