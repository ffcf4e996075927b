package database

import (
	"context"
	"errors"

	"github.com/koustreak/brewery/internal/errs"
	"zombiezen.com/go/sqlite"
)

// mapError translates SQLite engine errors into *errs.Error.
// Errors that already carry a kind pass through unchanged.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	return errs.Wrap(classifyResultCode(sqlite.ErrCode(err)), msg, err)
}

// classifyResultCode maps SQLite primary result codes to ErrKind.
func classifyResultCode(code sqlite.ResultCode) errs.ErrKind {
	switch code.ToPrimary() {
	case sqlite.ResultBusy, sqlite.ResultLocked, sqlite.ResultInterrupt:
		return errs.ErrKindTimeout
	case sqlite.ResultCantOpen, sqlite.ResultCorrupt:
		return errs.ErrKindConnectionFailed
	case sqlite.ResultPerm, sqlite.ResultReadOnly:
		return errs.ErrKindPermissionDenied
	case sqlite.ResultConstraint:
		return errs.ErrKindConstraintViolation
	case sqlite.ResultNotFound:
		return errs.ErrKindNotFound
	case sqlite.ResultRange, sqlite.ResultMismatch, sqlite.ResultTooBig:
		return errs.ErrKindInvalidInput
	default:
		return errs.ErrKindQueryFailed
	}
}

// engineMessage returns the text the sink records for err: the engine's
// own message when there is one.
func engineMessage(err error) string {
	var e *errs.Error
	if errors.As(err, &e) && e.Cause != nil {
		return e.Cause.Error()
	}
	if e != nil {
		return e.Message
	}
	return err.Error()
}
