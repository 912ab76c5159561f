// Package apierr defines the coordinator's HTTP error taxonomy: a small set
// of typed errors, each mapped to a status code and surfaced as JSON with a
// matching X-Error-Kind header so clients can branch without parsing the
// body.
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind categorizes a coordinator-facing error.
type Kind string

const (
	NotFound     Kind = "NotFound"
	MissingParam Kind = "MissingParam"
	LockFailure  Kind = "LockFailure"
)

// Error is a typed, wire-serializable coordinator error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

// New builds an Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func statusFor(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case MissingParam:
		return http.StatusBadRequest
	case LockFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Write encodes err as the JSON error response, setting X-Error-Kind and the
// status code appropriate to its Kind. Non-*Error values are reported as an
// opaque LockFailure-class 500.
func Write(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = &Error{Kind: LockFailure, Message: err.Error()}
	}
	w.Header().Set("X-Error-Kind", string(apiErr.Kind))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(apiErr.Kind))
	_ = json.NewEncoder(w).Encode(apiErr)
}
