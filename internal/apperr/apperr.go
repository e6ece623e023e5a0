// Package apperr defines the error taxonomy shared by the tutor's services
// and its HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindUnauthorized     Kind = "unauthorized"
	KindGenerationFailed Kind = "generation_failed"
	KindPersistence      Kind = "persistence"
)

// Sentinels for errors.Is matching on kind.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrUnauthorized     = &Error{Kind: KindUnauthorized}
	ErrGenerationFailed = &Error{Kind: KindGenerationFailed}
	ErrPersistence      = &Error{Kind: KindPersistence}
)

// Error is a classified failure with an optional operation label and cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound reports a missing resource.
func NotFound(resource, id string) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", resource, id)}
}

// Validation reports malformed input.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a request that contradicts stored state.
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a missing or invalid identity.
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// GenerationFailed wraps a text-generation failure.
func GenerationFailed(op string, err error) error {
	return &Error{Kind: KindGenerationFailed, Op: op, Message: "text generation failed", Err: err}
}

// Persistence wraps a storage failure.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindPersistence, Op: op, Message: "storage failure", Err: err}
}

// KindOf returns the kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// HTTPStatus maps an error to a response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindGenerationFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// PublicMessage returns text safe to show a client. Persistence and
// unclassified errors are not described.
func PublicMessage(err error) string {
	var ae *Error
	if !errors.As(err, &ae) {
		return "internal server error"
	}
	switch ae.Kind {
	case KindPersistence:
		return "internal server error"
	case KindGenerationFailed:
		return "failed to generate content, please try again"
	}
	if ae.Message != "" {
		return ae.Message
	}
	return string(ae.Kind)
}
