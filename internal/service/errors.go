package service

import (
	"errors"
	"fmt"
)

// ErrKind classifies a service failure. Every error crossing the
// service boundary carries exactly one kind; the HTTP layer maps
// kinds to status codes and never inspects messages.
type ErrKind uint8

const (
	// ErrInternal is the fallback for unexpected failures.
	ErrInternal ErrKind = iota
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound
	// ErrInvalidArgument means the input is malformed (blank address,
	// invalid product data, inactive product).
	ErrInvalidArgument
	// ErrEmptyOrder means an order was placed with no line items.
	ErrEmptyOrder
	// ErrInsufficientStock means a requested quantity exceeds the
	// available stock.
	ErrInsufficientStock
	// ErrInvalidStatus means an order status outside the defined set.
	ErrInvalidStatus
	// ErrDuplicateEntity means a unique constraint (SKU, email,
	// username) would be violated.
	ErrDuplicateEntity
	// ErrUnauthenticated means the caller's credentials are missing or wrong.
	ErrUnauthenticated
)

// Error is a classified service error.
type Error struct {
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errf builds a classified error from a format string.
func Errf(kind ErrKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from err, or ErrInternal for plain errors.
func KindOf(err error) ErrKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ErrInternal
}
