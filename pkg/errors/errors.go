// Package errors carries coded errors from the domain to the HTTP layer.
package errors

import (
	stderrors "errors"

	"go.uber.org/multierr"
)

// Error is a coded error with an optional cause and client-safe details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches cause. A nil cause yields the same as New.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// WithDetails sets the payload rendered when the code allows details.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.code) + ": " + e.message
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether any part of a combined error carries code.
func IsCode(err error, code Code) bool {
	for _, part := range multierr.Errors(err) {
		if typed := As(part); typed != nil && typed.Code() == code {
			return true
		}
	}
	return false
}

// Combine joins independent failures, dropping nils.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Errors splits a Combine result back into its parts.
func Errors(err error) []error {
	return multierr.Errors(err)
}
