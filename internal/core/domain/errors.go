package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email has already been taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidRole        = errors.New("invalid role")
	ErrRoleNotSeeded      = errors.New("role not seeded")
)

// AuthorizationError is returned when an authenticated actor lacks the
// privilege for an action. It matches ErrForbidden under errors.Is.
type AuthorizationError struct {
	Action Action
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("unauthorized to %s user", e.Action)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}

// ValidationError carries field-level messages for rejected input.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k]...)
	}
	return strings.Join(msgs, "; ")
}

// OperationError tags an error with the user-facing operation that failed,
// e.g. "creating user". Known causes still match through errors.Is/As.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }
