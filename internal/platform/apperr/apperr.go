// Package apperr defines the error kinds shared by every service and the
// response class each kind maps to.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. Callers (including other services) branch on it,
// so the mapping to HTTP status is fixed.
type Kind int

const (
	Internal Kind = iota
	MissingCredential
	Unauthorized
	UpstreamUnavailable
	Forbidden
	NotFound
	InvalidInput
	SlotUnavailable
	AlreadyExists
)

var kindCodes = map[Kind]string{
	Internal:            "INTERNAL",
	MissingCredential:   "MISSING_CREDENTIAL",
	Unauthorized:        "UNAUTHORIZED",
	UpstreamUnavailable: "UPSTREAM_UNAVAILABLE",
	Forbidden:           "FORBIDDEN",
	NotFound:            "NOT_FOUND",
	InvalidInput:        "INVALID_INPUT",
	SlotUnavailable:     "SLOT_UNAVAILABLE",
	AlreadyExists:       "ALREADY_EXISTS",
}

var kindStatus = map[Kind]int{
	Internal:            http.StatusInternalServerError,
	MissingCredential:   http.StatusUnauthorized,
	Unauthorized:        http.StatusUnauthorized,
	UpstreamUnavailable: http.StatusServiceUnavailable,
	Forbidden:           http.StatusForbidden,
	NotFound:            http.StatusNotFound,
	InvalidInput:        http.StatusBadRequest,
	SlotUnavailable:     http.StatusConflict,
	AlreadyExists:       http.StatusConflict,
}

// String returns the stable wire code of the kind, e.g. "SLOT_UNAVAILABLE".
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[Internal]
}

// HTTPStatus returns the response class for the kind.
func (k Kind) HTTPStatus() int {
	if status, ok := kindStatus[k]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a classified error. Message is safe to show to callers; Err is the
// underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap classifies err under kind with a caller-facing message.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the caller-facing message for err. Unclassified errors
// never leak their text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
