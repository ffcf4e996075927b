// Package errs provides the unified error type used across all of Brewery.
//
// Every subsystem (database, filestore, server, …) wraps its native errors
// into *errs.Error before returning them to callers. Callers use the Is*
// predicates to handle errors without importing engine-specific packages.
//
// Usage:
//
//	// In the database layer, wrap native errors:
//	return errs.Wrap(errs.ErrKindQueryFailed, "prepare failed", sqliteErr)
//
//	// In a handler, check the error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
// The SQLite engine, the statement formatter and the object store all map
// their native failures to one of these kinds.
type ErrKind int

const (
	ErrKindUnknown               ErrKind = iota
	ErrKindNotFound                      // no rows, no object, no table
	ErrKindConnectionFailed              // cannot open or reach the backend
	ErrKindTimeout                       // busy / locked / context deadline
	ErrKindQueryFailed                   // statement failed to compile or execute
	ErrKindInvalidInput                  // bad arguments from the caller
	ErrKindPermissionDenied              // access denied / read-only
	ErrKindFormatOverflow                // rendered statement exceeds its buffer
	ErrKindNoCurrentRow                  // column read on an exhausted cursor
	ErrKindColumnIndexOutOfRange         // column ordinal outside the result set
	ErrKindConstraintViolation           // UNIQUE / FOREIGN KEY / NOT NULL
	ErrKindAborted                       // row callback asked to stop
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindFormatOverflow:
		return "format_overflow"
	case ErrKindNoCurrentRow:
		return "no_current_row"
	case ErrKindColumnIndexOutOfRange:
		return "column_index_out_of_range"
	case ErrKindConstraintViolation:
		return "constraint_violation"
	case ErrKindAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all Brewery subsystems.
// Producers build it with New or Wrap; callers inspect it via the Is* predicates.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original engine-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result
// (no rows, missing object, unknown table, …).
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a busy engine, a lock,
// or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is an open/connectivity failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a statement compile or execution failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsFormatOverflow reports whether a statement did not fit its buffer.
func IsFormatOverflow(err error) bool {
	return KindOf(err) == ErrKindFormatOverflow
}

// IsNoCurrentRow reports whether a column was read without a current row.
func IsNoCurrentRow(err error) bool {
	return KindOf(err) == ErrKindNoCurrentRow
}

// IsColumnIndexOutOfRange reports whether a column ordinal was out of range.
func IsColumnIndexOutOfRange(err error) bool {
	return KindOf(err) == ErrKindColumnIndexOutOfRange
}

// IsConstraintViolation reports whether a write broke a table constraint.
func IsConstraintViolation(err error) bool {
	return KindOf(err) == ErrKindConstraintViolation
}

// IsAborted reports whether execution was stopped by a row callback.
func IsAborted(err error) bool {
	return KindOf(err) == ErrKindAborted
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
