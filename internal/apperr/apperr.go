// Package apperr carries the error taxonomy shared by services and the HTTP
// layer. Handlers map kinds to status codes in one place so internals never
// leak past the message string.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindStorage
	KindProcessing
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

func Auth(message string) *Error      { return New(KindAuth, message) }
func Forbidden(message string) *Error { return New(KindForbidden, message) }
func NotFound(message string) *Error  { return New(KindNotFound, message) }
func Conflict(message string) *Error  { return New(KindConflict, message) }

func Storage(message string, err error) *Error {
	return Wrap(KindStorage, message, err)
}

func Processing(message string, err error) *Error {
	return Wrap(KindProcessing, message, err)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "internal error", err)
}

// KindOf extracts the kind from err, defaulting to KindInternal for
// anything outside the taxonomy.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// MessageOf returns the user-facing message for err. Errors outside the
// taxonomy collapse to a generic message.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "something went wrong"
}
