package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/brewery/internal/errs"
)

type errorBody struct {
	Error string   `json:"error"`
	Kind  string   `json:"kind"`
	Log   []string `json:"log,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err's kind to an HTTP status. log carries the sink lines
// the failure produced, if any.
func writeError(w http.ResponseWriter, err error, log []string) {
	kind := errs.KindOf(err)
	writeJSON(w, statusFor(kind), errorBody{
		Error: err.Error(),
		Kind:  kind.String(),
		Log:   log,
	})
}

func statusFor(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindInvalidInput, errs.ErrKindFormatOverflow:
		return http.StatusBadRequest
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindQueryFailed, errs.ErrKindConstraintViolation, errs.ErrKindAborted:
		return http.StatusUnprocessableEntity
	case errs.ErrKindTimeout:
		return http.StatusServiceUnavailable
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
