package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, fld := range err.Fields {
		msgs = append(msgs, fld.Field+": "+fld.Error)
	}
	return strings.Join(msgs, "; ")
}

// IsValidationError reports whether the cause of err is a *ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// AuthErrorKind classifies authentication failures.
type AuthErrorKind int

const (
	AuthInvalidCredentials AuthErrorKind = iota + 1
	AuthUserNotFound
	AuthTooManyAttempts
	AuthNotApproved
	AuthAccessDenied
)

// AuthError is a user-facing authentication failure. Its message is safe to show as is.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func NewAuthError(kind AuthErrorKind, msg string) error {
	return &AuthError{Kind: kind, Message: msg}
}

func (err AuthError) Error() string {
	return err.Message
}

// IsAuthError reports whether the cause of err is an *AuthError of the given kind.
func IsAuthError(err error, kind AuthErrorKind) bool {
	aErr, ok := errors.Cause(err).(*AuthError)
	return ok && aErr.Kind == kind
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
