// Package errors defines the domain error taxonomy shared by the workflow
// engine and the services that host it.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a DomainError so transports can map it to a status code.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization"
)

// FieldError describes one invalid or missing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type DomainError struct {
	Kind    Kind         `json:"kind"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *DomainError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Is matches on Kind and Code so sentinel values work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// FieldNames returns the names of every field carried by the error.
func (e *DomainError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Validation builds a ValidationError listing every violation.
func Validation(fields ...FieldError) *DomainError {
	return &DomainError{
		Kind:    KindValidation,
		Code:    "VALIDATION_FAILED",
		Message: "validation failed",
		Fields:  fields,
	}
}

// Missing builds a ValidationError for a set of required fields that are absent.
func Missing(names ...string) *DomainError {
	fields := make([]FieldError, 0, len(names))
	for _, n := range names {
		fields = append(fields, FieldError{Field: n, Message: "is required"})
	}
	err := Validation(fields...)
	err.Code = "MISSING_FIELDS"
	err.Message = "required fields are missing"
	return err
}

func Conflict(code, message string) *DomainError {
	return &DomainError{Kind: KindConflict, Code: code, Message: message}
}

func NotFound(code, message string) *DomainError {
	return &DomainError{Kind: KindNotFound, Code: code, Message: message}
}

func Unauthorized(code, message string) *DomainError {
	return &DomainError{Kind: KindAuthorization, Code: code, Message: message}
}

// As extracts a DomainError from an error chain.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func hasKind(err error, k Kind) bool {
	de, ok := As(err)
	return ok && de.Kind == k
}

func IsValidation(err error) bool    { return hasKind(err, KindValidation) }
func IsConflict(err error) bool      { return hasKind(err, KindConflict) }
func IsNotFound(err error) bool      { return hasKind(err, KindNotFound) }
func IsAuthorization(err error) bool { return hasKind(err, KindAuthorization) }
