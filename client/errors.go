package client

import (
	"errors"
	"fmt"
)

// Error kinds a UI switches on. Every failed call wraps exactly one of these,
// so callers use errors.Is instead of matching strings or status codes.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateRequest = errors.New("duplicate pending request")
	ErrInvalidState     = errors.New("request already resolved")
	ErrBookUnavailable  = errors.New("book unavailable")
	ErrValidation       = errors.New("invalid input")
	ErrTransient        = errors.New("transient failure")
	ErrServer           = errors.New("server error")
)

// APIError is a decoded error envelope from the server, still carrying the
// raw code and message for display.
type APIError struct {
	Status  int
	Code    string
	Message string
	kind    error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

func newAPIError(status int, code, message string) *APIError {
	e := &APIError{Status: status, Code: code, Message: message}

	switch code {
	case "DUPLICATE_REQUEST":
		e.kind = ErrDuplicateRequest
	case "INVALID_STATE", "THREAD_CLOSED":
		e.kind = ErrInvalidState
	case "BOOK_UNAVAILABLE":
		e.kind = ErrBookUnavailable
	case "OWN_BOOK":
		e.kind = ErrForbidden
	case "VALIDATION_ERROR", "INVALID_ID":
		e.kind = ErrValidation
	case "BOOK_NOT_FOUND":
		e.kind = ErrNotFound
	}
	if e.kind != nil {
		return e
	}

	switch {
	case status == 401:
		e.kind = ErrUnauthenticated
	case status == 403:
		e.kind = ErrForbidden
	case status == 404:
		e.kind = ErrNotFound
	case status == 409:
		e.kind = ErrInvalidState
	case status >= 500:
		e.kind = ErrServer
	default:
		e.kind = ErrValidation
	}
	return e
}
