package model

import (
	"errors"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// Student registry errors
	ErrStudentNotFound  = errors.New("student not found")
	ErrAlreadyLinked    = errors.New("student is already linked to an account")
	ErrIdentityMismatch = errors.New("claimed identity does not match student record")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("forbidden")

	// Generic input errors
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Uniqueness conflicts, one per unique field
var (
	ErrEmailTaken     = &ConflictError{Field: "email"}
	ErrHandleTaken    = &ConflictError{Field: "handle"}
	ErrStudentIDTaken = &ConflictError{Field: "student_id"}
)

// ConflictError reports a uniqueness violation on a named field.
// It matches ErrConflict under errors.Is.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return "the " + strings.ReplaceAll(e.Field, "_", " ") + " has already been taken"
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError collects field-keyed validation messages.
// It matches ErrInvalidInput under errors.Is, and Cause when one is set.
type ValidationError struct {
	Fields map[string][]string
	Cause  error
}

// NewValidationError creates a ValidationError with a single message on field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// NewFieldError reports cause as a message on field
func NewFieldError(field, message string, cause error) *ValidationError {
	v := NewValidationError(field, message)
	v.Cause = cause
	return v
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no messages were collected
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Err returns e as an error, or nil when it holds no messages.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrInvalidInput.Error()
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return e.Fields[fields[0]][0]
}

// Is reports whether target is ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
