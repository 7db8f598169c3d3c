// Package apperr defines the typed failures a service can return.
//
// Every service error is one of a small set of kinds. The presentation
// boundary maps the kind to an HTTP status and decides what is shown to the
// user and what is only logged.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthorization   Kind = "authorization"
	KindUnauthenticated Kind = "unauthenticated"
	KindNotFound        Kind = "not_found"
	KindPersistence     Kind = "persistence"
	KindUnavailable     Kind = "unavailable"
)

// GenericMessage is shown for persistence failures instead of the cause.
const GenericMessage = "An error occurred. Please try again later."

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation errors.
	Fields map[string]string
	// Redirect optionally names where the client should go next.
	Redirect string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthorization:
		return http.StatusForbidden
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithRedirect returns a copy of e that points the client at path.
func (e *Error) WithRedirect(path string) *Error {
	cp := *e
	cp.Redirect = path
	return &cp
}

// Validation builds a validation error from field messages.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

// Field builds a validation error for a single field.
func Field(name, message string) *Error {
	return Validation(map[string]string{name: message})
}

// Forbidden builds an authorization error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Unauthenticated builds an error for a caller that is not logged in.
func Unauthenticated(message string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: message, Redirect: "/login"}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Persistence wraps a storage or infrastructure failure. op names what was
// being attempted and only appears in logs.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: op, Err: err}
}

// Unavailable reports temporary saturation.
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// As returns the *Error in err's chain. Unclassified errors are reported as
// persistence failures.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Persistence("unclassified", err)
}

// Is reports whether err carries an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
