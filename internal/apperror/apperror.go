// Package apperror defines the failures a request can end with and how each
// one is rendered as an HTTP status and JSON body.
package apperror

import (
	"errors"
	"net/http"

	"jobsapi/internal/validator"
)

type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindNotFound
)

// Error is a request failure with the HTTP status it maps to.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Errors  []validator.FieldError // only for KindValidation
	Err     error                  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds the 400 failure for a list of field errors.
func Validation(errs ...validator.FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Status:  http.StatusBadRequest,
		Message: "Validation error",
		Errors:  errs,
	}
}

// NotFound builds the 404 failure.
func NotFound(message string) *Error {
	if message == "" {
		message = "Not found"
	}
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

// New builds a generic failure answered with status.
func New(status int, message string) *Error {
	return &Error{Kind: KindGeneric, Status: status, Message: message}
}

// WithStatus marks err as a generic failure answered with status.
func WithStatus(err error, status int) *Error {
	return &Error{Kind: KindGeneric, Status: status, Message: err.Error(), Err: err}
}

// From classifies any error. Errors that are not *Error become generic
// failures with status 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Status == 0 {
			cp := *e
			cp.Status = http.StatusInternalServerError
			return &cp
		}
		return e
	}
	return &Error{
		Kind:    KindGeneric,
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Err:     err,
	}
}

// Body is the JSON error envelope.
type Body struct {
	Errors []validator.FieldError `json:"errors"`
}

// Payload renders the envelope. Validation failures list every field error;
// all other failures carry a single {code, message} entry where code is the
// HTTP status.
func (e *Error) Payload() Body {
	if e.Kind == KindValidation {
		errs := e.Errors
		if errs == nil {
			errs = []validator.FieldError{}
		}
		return Body{Errors: errs}
	}
	return Body{Errors: []validator.FieldError{{Code: e.Status, Message: e.Error()}}}
}
