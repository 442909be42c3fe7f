// Package services holds the cart, pricing, checkout and order status
// rules. Handlers call into it; it talks to storage through the store
// interfaces only.
package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers that need to translate it, such
// as the HTTP layer.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindInvalidArgument   Kind = "InvalidArgument"
	KindInsufficientStock Kind = "InsufficientStock"
	KindEmptyCart         Kind = "EmptyCart"
	KindUnauthorized      Kind = "Unauthorized"
	KindForbidden         Kind = "Forbidden"
	KindConflict          Kind = "Conflict"
	KindInternal          Kind = "Internal"
)

// Error is the error type returned by every service operation.
type Error struct {
	Kind    Kind
	Message string

	// Available is set for KindInsufficientStock.
	Available int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so that errors.Is(err, ErrNotFound) works for any
// NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrForbidden         = &Error{Kind: KindForbidden}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrInternal          = &Error{Kind: KindInternal}
)

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func insufficientStock(name string, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf("only %d of %s left in stock", available, name),
		Available: available,
	}
}

// internal hides the storage error from clients; it stays reachable
// through Unwrap for logging.
func internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: fmt.Errorf("%s: %w", op, err)}
}
