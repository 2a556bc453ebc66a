// Package apperror normalizes failures from every layer into the small
// taxonomy clients see, and renders them as the JSON error envelope.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fastmemo/store"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindConflict
	KindTooManyRequests
	KindUnavailable // 500 with a client-facing message, a collaborator failed
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Status is the HTTP status code for the kind
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

const (
	MsgDuplicate = "Duplicate field value, please use another value"
	MsgInternal  = "Something went wrong"
)

// Error is an operational error (Kind != KindInternal) or a wrapped
// unexpected failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Operational reports whether the message is safe to show to clients
func (e *Error) Operational() bool {
	return e.Kind != KindInternal
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthenticated(message string) *Error { return New(KindUnauthenticated, message) }
func Forbidden(message string) *Error       { return New(KindForbidden, message) }
func NotFound(message string) *Error        { return New(KindNotFound, message) }
func Validation(message string) *Error      { return New(KindValidation, message) }
func Conflict(message string) *Error        { return New(KindConflict, message) }
func TooManyRequests(message string) *Error { return New(KindTooManyRequests, message) }

func Unavailable(message string, err error) *Error {
	return Wrap(KindUnavailable, message, err)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, MsgInternal, err)
}

// Normalize maps any error onto the taxonomy. Errors already normalized are
// returned as-is; store sentinels get their client-facing messages;
// everything else is internal.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var invalidID *store.InvalidIDError
	if errors.As(err, &invalidID) {
		return Wrap(KindValidation, fmt.Sprintf("Invalid %s: %s", invalidID.Field, invalidID.Value), err)
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Wrap(KindValidation, "Request body too large", err)
	}

	switch {
	case errors.Is(err, store.ErrDuplicate):
		return Wrap(KindConflict, MsgDuplicate, err)
	case errors.Is(err, store.ErrNotFound):
		return Wrap(KindNotFound, "No document found with that ID", err)
	}

	return Internal(err)
}

// Body is the error envelope
type Body struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Render builds the status code and envelope for err. With detail set
// (development) the full error chain is included and internal messages
// are not masked.
func Render(err error, detail bool) (int, Body) {
	e := Normalize(err)
	code := e.Kind.Status()

	body := Body{Status: "fail", Message: e.Message}
	if code >= http.StatusInternalServerError {
		body.Status = "error"
	}

	if detail {
		body.Kind = e.Kind.String()
		body.Error = e.Error()
		if !e.Operational() && e.Err != nil {
			body.Message = e.Err.Error()
		}
	} else if !e.Operational() {
		body.Message = MsgInternal
	}

	return code, body
}

// Write renders err onto w
func Write(w http.ResponseWriter, err error, detail bool) {
	code, body := Render(err, detail)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
